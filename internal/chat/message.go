// Package chat implements the conversational core: an ordered message
// log with a single-pending invariant, and the turn controller that
// resolves one user submission at a time against the generation
// gateway.
package chat

import (
	"time"

	"github.com/google/uuid"

	"lumina/internal/attachment"
)

// Role identifies the author of a message. Fixed at creation.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Message is one turn's entry in the log. Text and Pending are the
// only mutable fields, and only the controller that created the
// message amends them.
type Message struct {
	ID         string
	Role       Role
	Text       string
	Attachment *attachment.Attachment
	Pending    bool
	CreatedAt  time.Time
}

// NewMessage constructs a message with a fresh ID and capture-time
// timestamp.
func NewMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}
