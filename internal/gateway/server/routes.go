package server

import (
	"log/slog"
	"net/http"

	"geomentor/internal/gateway/handler"
	"geomentor/internal/gateway/middleware"
)

func NewMux(h *handler.Handler, logger *slog.Logger, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat", h.HandleChat)
	mux.HandleFunc("GET /chat/ws", h.HandleChatWS)
	mux.HandleFunc("POST /generate-test", h.HandleGenerateTest)
	mux.HandleFunc("GET /tests/{id}", h.HandleGetTest)
	mux.HandleFunc("GET /healthz", h.HandleHealth)

	return middleware.Chain(mux,
		middleware.Logging(logger),
		middleware.CORS(allowedOrigins),
	)
}
