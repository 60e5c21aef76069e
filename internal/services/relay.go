package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	relayTimeout = 30 * time.Second

	// fallbackReply is served when the webhook answers with a body none of
	// the known reply fields can be read from.
	fallbackReply = "Sorry, I could not process your request."
)

// relayPayload is the body posted to the webhook.
type relayPayload struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
}

// relayReply is the loosely-typed body the webhook may return. Workflow
// engines disagree on the field name, so all three conventional ones are
// mapped and resolved in order.
type relayReply struct {
	Response *string `json:"response"`
	Message  *string `json:"message"`
	Output   *string `json:"output"`
}

// RelayService performs the outbound call to the external automation webhook
// that produces the bot's reply text.
type RelayService struct {
	webhookURL string
	client     *http.Client
}

func NewRelayService(webhookURL string) *RelayService {
	return &RelayService{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: relayTimeout},
	}
}

// Configured reports whether a webhook URL was supplied.
func (s *RelayService) Configured() bool {
	return s.webhookURL != ""
}

// Relay posts the message to the webhook and returns the extracted reply
// text. It never persists anything and never retries.
func (s *RelayService) Relay(ctx context.Context, message, sessionID string) (string, error) {
	if s.webhookURL == "" {
		return "", &RelayError{Kind: RelayNotConfigured}
	}

	payload, err := json.Marshal(relayPayload{
		Message:   message,
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", &RelayError{Kind: RelayUnreachable, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return "", &RelayError{Kind: RelayUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &RelayError{Kind: RelayTimeout, Err: err}
		}
		return "", &RelayError{Kind: RelayUnreachable, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RelayError{Kind: RelayUnreachable, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RelayError{
			Kind:   RelayUpstream,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	return extractReply(body), nil
}

// extractReply resolves the reply text by checking response, then message,
// then output. Empty or absent fields are skipped; unreadable bodies fall
// back to a fixed apology.
func extractReply(body []byte) string {
	var reply relayReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return fallbackReply
	}

	for _, field := range []*string{reply.Response, reply.Message, reply.Output} {
		if field != nil && *field != "" {
			return *field
		}
	}
	return fallbackReply
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
