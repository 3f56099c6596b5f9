package model

import "time"

// Message roles. Conversations only ever contain these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Source is a retrieved passage attached to an assistant answer so the
// caller can see what grounded it.
type Source struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
}

// ChatMessage is one turn in a conversation. Messages are appended and
// never mutated afterwards, with a single exception: the in-flight
// assistant placeholder is replaced atomically by the final answer.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
