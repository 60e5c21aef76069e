package services

import (
	"context"
	"strings"
	"time"

	"chatrelay-backend/internal/models"
)

// Relayer produces the bot reply for a message. Satisfied by *RelayService.
type Relayer interface {
	Relay(ctx context.Context, message, sessionID string) (string, error)
}

type turnWriter interface {
	Insert(ctx context.Context, t *models.ChatTurn) error
}

// ChatService orchestrates one logical chat operation: relay the message,
// persist the completed turn, return the reply.
type ChatService struct {
	relay Relayer
	store turnWriter
}

func NewChatService(relay Relayer, store turnWriter) *ChatService {
	return &ChatService{relay: relay, store: store}
}

type ChatResult struct {
	Response  string
	Timestamp time.Time
}

// HandleChat validates the message, relays it and persists the turn. A relay
// failure persists nothing. A store failure after a successful relay fails
// the whole request: a reply that history will never show is not served.
func (s *ChatService) HandleChat(ctx context.Context, message, sessionID string) (*ChatResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &ValidationError{Message: "Message is required"}
	}

	if sessionID == "" {
		sessionID = models.DefaultSessionID
	}

	reply, err := s.relay.Relay(ctx, message, sessionID)
	if err != nil {
		return nil, err
	}

	turn := &models.ChatTurn{
		UserMessage: message,
		BotResponse: reply,
		SessionID:   sessionID,
	}
	if err := s.store.Insert(ctx, turn); err != nil {
		return nil, &StoreError{Op: "insert message", Err: err}
	}

	return &ChatResult{Response: reply, Timestamp: time.Now().UTC()}, nil
}
