package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"chatrelay-backend/internal/models"
	"chatrelay-backend/internal/services"
)

type chatService interface {
	HandleChat(ctx context.Context, message, sessionID string) (*services.ChatResult, error)
}

type ChatHandler struct {
	chat chatService
}

func NewChatHandler(chat chatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	// The relay call and the write run to completion even if the browser
	// abandons the request; the relay's own 30 second bound is the only
	// cancellation on this path.
	result, err := h.chat.HandleChat(context.WithoutCancel(r.Context()), req.Message, req.SessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Success:   true,
		Response:  result.Response,
		Timestamp: result.Timestamp.Format(time.RFC3339),
	})
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func handleServiceError(w http.ResponseWriter, err error) {
	var vErr *services.ValidationError
	var rErr *services.RelayError
	var sErr *services.StoreError

	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: vErr.Message})
	case errors.As(err, &rErr):
		if rErr.Kind == services.RelayTimeout {
			writeJSON(w, http.StatusGatewayTimeout, models.ErrorResponse{
				Error: "Request timeout. Please try again.",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to process message. Please check your webhook configuration.",
			Details: rErr.Error(),
		})
	case errors.As(err, &sErr):
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to save message",
			Details: sErr.Error(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error: "An unexpected error occurred",
		})
	}
}
