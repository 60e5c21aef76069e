package handlers

import (
	"context"
	"net/http"
	"time"

	"chatrelay-backend/internal/models"
)

type storePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports live status. It never errors: a broken store shows
// up as "disconnected", never as a failed request.
type HealthHandler struct {
	store           storePinger
	relayConfigured bool
}

func NewHealthHandler(store storePinger, relayConfigured bool) *HealthHandler {
	return &HealthHandler{store: store, relayConfigured: relayConfigured}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	store := "connected"
	if err := h.store.Ping(ctx); err != nil {
		store = "disconnected"
	}

	relay := "configured"
	if !h.relayConfigured {
		relay = "not configured"
	}

	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Store:     store,
		Relay:     relay,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
