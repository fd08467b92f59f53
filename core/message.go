package core

import "time"

// Role identifies the author of a message or turn.
type Role string

const (
	// RoleUser marks content written by the local user.
	RoleUser Role = "user"
	// RoleAssistant marks content produced by the remote agent.
	RoleAssistant Role = "assistant"
)

// Message is a remote message as returned by the agent service. It is never
// mutated locally.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is one entry of the local conversation history used for redisplay.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"-"`
}

// NewUserTurn builds a user turn holding a single text part.
func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// TurnFromMessage converts a remote message into a history turn.
func TurnFromMessage(m Message) Turn {
	parts := make([]Part, len(m.Parts))
	copy(parts, m.Parts)
	return Turn{Role: m.Role, Parts: parts}
}

// SortOrder selects the order in which thread messages are listed.
type SortOrder string

const (
	// OrderAscending lists oldest messages first.
	OrderAscending SortOrder = "asc"
	// OrderDescending lists newest messages first.
	OrderDescending SortOrder = "desc"
)
