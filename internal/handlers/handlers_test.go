package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"chatrelay-backend/internal/models"
	"chatrelay-backend/internal/services"
)

// ─── Fakes ───

type fakeChatService struct {
	result *services.ChatResult
	err    error
}

func (f *fakeChatService) HandleChat(_ context.Context, message, sessionID string) (*services.ChatResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(message) == "" {
		return nil, &services.ValidationError{Message: "Message is required"}
	}
	return f.result, nil
}

type fakeHistoryService struct {
	turns    []models.ChatTurn
	err      error
	gotLimit int
	gotSess  string
}

func (f *fakeHistoryService) GetHistory(_ context.Context, sessionID string, limit int) ([]models.ChatTurn, error) {
	f.gotSess = sessionID
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.turns, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

func setupRouter(chat chatService, history historyService, pinger storePinger, relayConfigured bool) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/api/chat", NewChatHandler(chat).Send)
	r.Get("/api/history", NewHistoryHandler(history).List)
	r.Get("/api/health", NewHealthHandler(pinger, relayConfigured).Check)
	return r
}

func postChat(t *testing.T, r http.Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

// ─── Chat Handler Tests ───

func TestChatSuccess(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	chat := &fakeChatService{result: &services.ChatResult{Response: "hi human", Timestamp: now}}
	r := setupRouter(chat, &fakeHistoryService{}, &fakePinger{}, true)

	resp := postChat(t, r, map[string]string{"message": "hi bot", "sessionId": "s1"})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Error("expected success true")
	}
	if body.Response != "hi human" {
		t.Errorf("expected response 'hi human', got %q", body.Response)
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Errorf("expected RFC3339 timestamp, got %q", body.Timestamp)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	r := setupRouter(&fakeChatService{}, &fakeHistoryService{}, &fakePinger{}, true)

	resp := postChat(t, r, map[string]string{"message": ""})

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	var body models.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Success {
		t.Error("expected success false")
	}
	if body.Error != "Message is required" {
		t.Errorf("unexpected error message %q", body.Error)
	}
}

func TestChatInvalidBody(t *testing.T) {
	r := setupRouter(&fakeChatService{}, &fakeHistoryService{}, &fakePinger{}, true)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("not json"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatRelayTimeout(t *testing.T) {
	chat := &fakeChatService{err: &services.RelayError{Kind: services.RelayTimeout}}
	r := setupRouter(chat, &fakeHistoryService{}, &fakePinger{}, true)

	resp := postChat(t, r, map[string]string{"message": "hi"})

	if resp.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", resp.Code)
	}
}

func TestChatRelayFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not configured", &services.RelayError{Kind: services.RelayNotConfigured}},
		{"upstream error", &services.RelayError{Kind: services.RelayUpstream, Status: 500, Body: "boom"}},
		{"unreachable", &services.RelayError{Kind: services.RelayUnreachable, Err: errors.New("dial tcp: refused")}},
		{"store failure", &services.StoreError{Op: "insert message", Err: errors.New("write failed")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(&fakeChatService{err: tc.err}, &fakeHistoryService{}, &fakePinger{}, true)

			resp := postChat(t, r, map[string]string{"message": "hi"})

			if resp.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", resp.Code)
			}

			var body models.ErrorResponse
			json.NewDecoder(resp.Body).Decode(&body)
			if body.Success {
				t.Error("expected success false")
			}
			if body.Error == "" {
				t.Error("expected a human-readable error message")
			}
			if body.Details == "" {
				t.Error("expected underlying detail to be carried")
			}
		})
	}
}

type recordingStore struct {
	turns []*models.ChatTurn
}

func (s *recordingStore) Insert(_ context.Context, t *models.ChatTurn) error {
	s.turns = append(s.turns, t)
	return nil
}

func TestChatSurvivesClientAbandonment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The browser walks away while the webhook call is in flight.
		cancel()
		time.Sleep(10 * time.Millisecond)
		w.Write([]byte(`{"response":"done"}`))
	}))
	defer srv.Close()

	store := &recordingStore{}
	chat := services.NewChatService(services.NewRelayService(srv.URL), store)

	r := chi.NewRouter()
	r.Post("/api/chat", NewChatHandler(chat).Send)

	payload, _ := json.Marshal(map[string]string{"message": "hi", "sessionId": "s1"})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(payload)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 despite the abandoned client, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(store.turns) != 1 {
		t.Fatalf("expected the turn to be persisted despite the abandoned client, got %d", len(store.turns))
	}
	if store.turns[0].BotResponse != "done" {
		t.Errorf("expected the relayed reply to be stored, got %q", store.turns[0].BotResponse)
	}
}

// ─── History Handler Tests ───

func TestHistoryDefaults(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLimit int
		wantSess  string
	}{
		{"no params", "", 50, ""},
		{"session filter", "?sessionId=s9", 50, "s9"},
		{"explicit limit", "?limit=7", 7, ""},
		{"zero limit", "?limit=0", 0, ""},
		{"non-numeric limit", "?limit=abc", 50, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			history := &fakeHistoryService{turns: []models.ChatTurn{}}
			r := setupRouter(&fakeChatService{}, history, &fakePinger{}, true)

			req := httptest.NewRequest(http.MethodGet, "/api/history"+tc.query, nil)
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.Code)
			}
			if history.gotLimit != tc.wantLimit {
				t.Errorf("expected limit %d, got %d", tc.wantLimit, history.gotLimit)
			}
			if history.gotSess != tc.wantSess {
				t.Errorf("expected session %q, got %q", tc.wantSess, history.gotSess)
			}
		})
	}
}

func TestHistoryReturnsMessages(t *testing.T) {
	t1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	history := &fakeHistoryService{turns: []models.ChatTurn{
		{UserMessage: "q1", BotResponse: "a1", SessionID: "s1", Timestamp: t1},
		{UserMessage: "q2", BotResponse: "a2", SessionID: "s1", Timestamp: t1.Add(time.Minute)},
	}}
	r := setupRouter(&fakeChatService{}, history, &fakePinger{}, true)

	req := httptest.NewRequest(http.MethodGet, "/api/history?sessionId=s1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var body models.HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Error("expected success true")
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(body.Messages))
	}
	if !body.Messages[0].Timestamp.Before(body.Messages[1].Timestamp) {
		t.Error("expected chronological ascending order")
	}
}

func TestHistoryEmptyIsArrayNotNull(t *testing.T) {
	history := &fakeHistoryService{turns: []models.ChatTurn{}}
	r := setupRouter(&fakeChatService{}, history, &fakePinger{}, true)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if !strings.Contains(resp.Body.String(), `"messages":[]`) {
		t.Errorf("expected empty messages array, got %s", resp.Body.String())
	}
}

func TestHistoryStoreFailure(t *testing.T) {
	history := &fakeHistoryService{err: &services.StoreError{Op: "fetch history", Err: errors.New("read failed")}}
	r := setupRouter(&fakeChatService{}, history, &fakePinger{}, true)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

// ─── Health Handler Tests ───

func TestHealth(t *testing.T) {
	tests := []struct {
		name            string
		pingErr         error
		relayConfigured bool
		wantStore       string
		wantRelay       string
	}{
		{"all up", nil, true, "connected", "configured"},
		{"store down", errors.New("no route"), true, "disconnected", "configured"},
		{"relay unset", nil, false, "connected", "not configured"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(&fakeChatService{}, &fakeHistoryService{}, &fakePinger{err: tc.pingErr}, tc.relayConfigured)

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if resp.Code != http.StatusOK {
				t.Fatalf("health must never error, got %d", resp.Code)
			}

			var body models.HealthResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != "ok" {
				t.Errorf("expected status ok, got %q", body.Status)
			}
			if body.Store != tc.wantStore {
				t.Errorf("expected store %q, got %q", tc.wantStore, body.Store)
			}
			if body.Relay != tc.wantRelay {
				t.Errorf("expected relay %q, got %q", tc.wantRelay, body.Relay)
			}
			if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
				t.Errorf("expected RFC3339 timestamp, got %q", body.Timestamp)
			}
		})
	}
}
