package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"findocgpt/internal/logger"
	"findocgpt/models"
)

// ChatLogStore persists sessions and message exchanges. A transport
// collaborator: the pipeline itself never reads these tables.
type ChatLogStore struct {
	db *sql.DB
}

func NewChatLogStore(db *sql.DB) *ChatLogStore {
	return &ChatLogStore{db: db}
}

// EnsureSession upserts the session row and bumps its updated_at.
func (cl *ChatLogStore) EnsureSession(ctx context.Context, sessionID string) error {
	now := time.Now().UTC()
	_, err := cl.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (session_id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, now, now)
	return err
}

// LogExchange records one user message and the bot response, with the
// extracted KPIs as an audit JSON blob. Logging failures are reported
// but never fail the chat request.
func (cl *ChatLogStore) LogExchange(ctx context.Context, sessionID, message string, response models.ChatResponse) {
	var kpisJSON []byte
	if response.KPIs != nil {
		kpisJSON, _ = json.Marshal(response.KPIs)
	}

	_, err := cl.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, message, response, message_type, kpis_extracted, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, message, response.Message, "user", string(kpisJSON), time.Now().UTC())
	if err != nil {
		logger.Warn("failed to log chat exchange", "session", sessionID, "error", err)
	}
}

// History returns the logged exchanges for a session, oldest first.
func (cl *ChatLogStore) History(ctx context.Context, sessionID string, limit int) ([]models.ChatMessageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := cl.db.QueryContext(ctx,
		`SELECT id, session_id, message, response, message_type, kpis_extracted, timestamp
		 FROM chat_messages WHERE session_id = ? ORDER BY id LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.ChatMessageRecord
	for rows.Next() {
		var (
			rec      models.ChatMessageRecord
			resp     sql.NullString
			kpisJSON sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Message, &resp,
			&rec.MessageType, &kpisJSON, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Response = resp.String
		rec.KPIsExtracted = kpisJSON.String
		history = append(history, rec)
	}
	return history, rows.Err()
}
