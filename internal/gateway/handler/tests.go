package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"geomentor/internal/gateway/repository/testbank"
	"geomentor/internal/gateway/service/testgen"
	"geomentor/internal/logging"
	"geomentor/internal/quiz"
)

const defaultNumQuestions = 10

type generateTestRequest struct {
	Topic        string `json:"topic" validate:"notblank,max=200"`
	NumQuestions *int   `json:"num_questions" validate:"omitempty,min=1,max=30"`
}

type generateTestResponse struct {
	quiz.Test
	ID string `json:"test_id,omitempty"`
}

// HandleGenerateTest serves POST /generate-test.
func (h *Handler) HandleGenerateTest(w http.ResponseWriter, r *http.Request) {
	var req generateTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	n := defaultNumQuestions
	if req.NumQuestions != nil {
		n = *req.NumQuestions
	}

	res, err := h.tests.Generate(r.Context(), req.Topic, n)
	switch {
	case errors.Is(err, testgen.ErrNoAPIKey):
		writeError(w, http.StatusInternalServerError, "API key not found")
		return
	case err != nil:
		logging.FromContext(r.Context()).ErrorContext(r.Context(), "generate test", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Failed to generate test")
		return
	}
	writeJSON(w, http.StatusOK, generateTestResponse{Test: res.Test, ID: res.ID})
}

// HandleGetTest serves GET /tests/{id} from the bank.
func (h *Handler) HandleGetTest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, err := h.tests.Lookup(r.Context(), id)
	switch {
	case errors.Is(err, testbank.ErrNotFound):
		writeError(w, http.StatusNotFound, "Test not found")
		return
	case errors.Is(err, testbank.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Invalid test id")
		return
	case err != nil:
		logging.FromContext(r.Context()).ErrorContext(r.Context(), "lookup test", slog.String("id", id), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Failed to load test")
		return
	}
	writeJSON(w, http.StatusOK, generateTestResponse{Test: t, ID: id})
}

// HandleHealth serves GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
