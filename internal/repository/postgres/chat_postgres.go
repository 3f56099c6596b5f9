package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/repository"
)

// ChatPostgres is a PostgreSQL implementation of repository.ChatRepository.
// Sources are stored as a JSONB column.
type ChatPostgres struct {
	db *sql.DB
}

// NewChatPostgres creates a new ChatPostgres repository.
func NewChatPostgres(db *sql.DB) *ChatPostgres {
	return &ChatPostgres{db: db}
}

var _ repository.ChatRepository = (*ChatPostgres)(nil)

// Append inserts a message at the end of a session's history.
func (r *ChatPostgres) Append(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	sources := msg.Sources
	if sources == nil {
		sources = []model.Source{}
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO chat_messages (id, session_id, role, content, sources)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, role, content, sources, created_at
	`
	row := r.db.QueryRowContext(ctx, q, msg.ID, msg.SessionID, msg.Role, msg.Content, raw)
	return scanChatMessage(row)
}

// ReplacePlaceholder finalizes a pending assistant message in one UPDATE.
func (r *ChatPostgres) ReplacePlaceholder(ctx context.Context, sessionID, messageID, content string, sources []model.Source) (bool, error) {
	if sources == nil {
		sources = []model.Source{}
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return false, err
	}

	const q = `
		UPDATE chat_messages
		SET content = $1, sources = $2
		WHERE session_id = $3 AND id = $4 AND role = $5
	`
	res, err := r.db.ExecContext(ctx, q, content, raw, sessionID, messageID, model.RoleAssistant)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListBySession returns the most recent limit messages in chronological order.
func (r *ChatPostgres) ListBySession(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	const q = `
		SELECT id, session_id, role, content, sources, created_at
		FROM (
			SELECT id, session_id, role, content, sources, created_at
			FROM chat_messages
			WHERE session_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ChatMessage, 0)
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func scanChatMessage(row interface{ Scan(...any) error }) (*model.ChatMessage, error) {
	var (
		m   model.ChatMessage
		raw []byte
	)
	if err := row.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &raw, &m.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &m.Sources); err != nil {
		return nil, err
	}
	return &m, nil
}
