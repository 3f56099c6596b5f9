package repository

import (
	"context"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
)

// ChatRepository persists append-only chat histories. Messages are never
// rewritten once stored, with one exception: an assistant placeholder row
// may be finalized exactly once via ReplacePlaceholder.
type ChatRepository interface {
	// Append inserts a message at the end of a session's history.
	Append(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error)

	// ReplacePlaceholder fills in the content and sources of a pending
	// assistant message. It reports false if the message does not exist.
	ReplacePlaceholder(ctx context.Context, sessionID, messageID, content string, sources []model.Source) (bool, error)

	// ListBySession returns the most recent messages of a session in
	// chronological order, up to limit.
	ListBySession(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error)
}
