package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatrelay-backend/internal/models"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// Insert persists a completed turn. The store assigns the timestamp at write
// completion, which is what history ordering is based on.
func (r *MessageRepo) Insert(ctx context.Context, t *models.ChatTurn) error {
	t.ID = uuid.New()
	if t.SessionID == "" {
		t.SessionID = models.DefaultSessionID
	}

	query := `INSERT INTO messages (id, user_message, bot_response, session_id)
		VALUES ($1, $2, $3, $4) RETURNING timestamp`

	return r.pool.QueryRow(ctx, query, t.ID, t.UserMessage, t.BotResponse, t.SessionID).Scan(&t.Timestamp)
}

// FindRecent returns the limit most recent turns in chronological order.
// An empty sessionID matches turns from every session. The rows are fetched
// newest-first so the LIMIT keeps the recent end, then reversed so callers
// always see oldest-first.
func (r *MessageRepo) FindRecent(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error) {
	query := `SELECT id, user_message, bot_response, session_id, timestamp
		FROM messages ORDER BY timestamp DESC LIMIT $1`
	args := []interface{}{limit}

	if sessionID != "" {
		query = `SELECT id, user_message, bot_response, session_id, timestamp
			FROM messages WHERE session_id = $1 ORDER BY timestamp DESC LIMIT $2`
		args = []interface{}{sessionID, limit}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []models.ChatTurn{}
	for rows.Next() {
		var t models.ChatTurn
		if err := rows.Scan(&t.ID, &t.UserMessage, &t.BotResponse, &t.SessionID, &t.Timestamp); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reverseTurns(turns)
	return turns, nil
}

// Ping reports whether the store is reachable. Used by the health endpoint.
func (r *MessageRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func reverseTurns(turns []models.ChatTurn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}
