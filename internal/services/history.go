package services

import (
	"context"

	"chatrelay-backend/internal/models"
)

// DefaultHistoryLimit caps history pages when the caller supplies no usable
// limit.
const DefaultHistoryLimit = 50

type turnReader interface {
	FindRecent(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error)
}

// HistoryService is a read-through over the message store.
type HistoryService struct {
	store turnReader
}

func NewHistoryService(store turnReader) *HistoryService {
	return &HistoryService{store: store}
}

// GetHistory returns the most recent turns for a session, oldest first. An
// empty result is a valid outcome. A negative limit falls back to the
// default; an explicit zero is honored and yields an empty page.
func (s *HistoryService) GetHistory(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error) {
	if limit < 0 {
		limit = DefaultHistoryLimit
	}

	turns, err := s.store.FindRecent(ctx, sessionID, limit)
	if err != nil {
		return nil, &StoreError{Op: "fetch history", Err: err}
	}
	return turns, nil
}
