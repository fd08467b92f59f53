package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for local sessions and mock
// records.
func NewID() string { return uuid.NewString() }
