package handler

import (
	"net/http"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// HandleChat serves POST /chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reply, err := h.assistant.Reply(r.Context(), sessionID(r), req.Message)
	if err != nil {
		status, msg := replyStatus(r.Context(), err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}
