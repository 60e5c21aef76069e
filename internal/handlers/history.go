package handlers

import (
	"context"
	"net/http"
	"strconv"

	"chatrelay-backend/internal/models"
	"chatrelay-backend/internal/services"
)

type historyService interface {
	GetHistory(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error)
}

type HistoryHandler struct {
	history historyService
}

func NewHistoryHandler(history historyService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")

	// Missing or non-numeric limits fall back to the default. Negative
	// values are coerced by the service; an explicit 0 stays 0.
	limit := services.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	turns, err := h.history.GetHistory(r.Context(), sessionID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to fetch chat history",
		})
		return
	}

	writeJSON(w, http.StatusOK, models.HistoryResponse{Success: true, Messages: turns})
}
