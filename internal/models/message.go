package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSessionID groups turns from callers that never chose a session.
const DefaultSessionID = "default"

// ChatTurn is one completed exchange: the user's message together with the
// reply the webhook produced for it. Turns are immutable once persisted.
type ChatTurn struct {
	ID          uuid.UUID `json:"id"`
	UserMessage string    `json:"userMessage"`
	BotResponse string    `json:"botResponse"`
	SessionID   string    `json:"sessionId"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChatRequest is the payload accepted by POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// HistoryResponse is the success body of GET /api/history. Messages are in
// chronological order, oldest first.
type HistoryResponse struct {
	Success  bool       `json:"success"`
	Messages []ChatTurn `json:"messages"`
}

// ErrorResponse is the shared failure body. Details carries the underlying
// error string when it is safe to expose.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	Relay     string `json:"relay"`
	Timestamp string `json:"timestamp"`
}
