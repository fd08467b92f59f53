// Package runner implements the chat turn loop shared by every front-end.
//
// A Runner resolves the remote agent and thread of a session (memoized per
// session), forwards the user input, starts exactly one run per turn, polls
// the run with exponential backoff until it reaches a terminal status and
// finally collects the assistant messages the session has not shown yet.
//
// # Responsibilities (abridged)
//   - Lazy agent and thread resolution
//   - Run polling bounded by a timeout, honoring context cancellation
//   - Incremental message collection (seen id bookkeeping)
//   - Local turn history for redisplay and conversation reset
//
// Remote failures are returned to the caller wrapped with the failing step;
// they are never retried here.
package runner
