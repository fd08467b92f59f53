package artifact

import "fmt"

var (
	// ErrNotFound is returned when no file is cached for the given session /
	// file id pair.
	ErrNotFound = fmt.Errorf("artifact not found")
)
