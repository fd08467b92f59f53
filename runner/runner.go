package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/service"
	"github.com/hupe1980/agentchat/session"
)

// errRunPending signals the backoff loop that the run is still active.
var errRunPending = errors.New("run still pending")

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// AgentSpec is used to create an agent when none is configured.
	AgentSpec core.AgentSpec
	// ExistingAgentID reuses a pre-existing agent instead of creating one.
	ExistingAgentID string
	// PollInterval is the delay before the first status poll and the
	// initial backoff interval between later polls.
	PollInterval time.Duration
	// PollMaxInterval caps the backoff delay between polls.
	PollMaxInterval time.Duration
	// PollMultiplier grows the delay after every poll.
	PollMultiplier float64
	// RunTimeout bounds the total time spent waiting for one run.
	RunTimeout time.Duration
	// MaxConcurrentTurns bounds turns in flight across all sessions. 0 means unlimited.
	MaxConcurrentTurns int64
	// Logger receives turn and run records.
	Logger logging.Logger
}

// StatusFunc observes run status changes during a turn.
type StatusFunc func(status core.RunStatus)

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	// Run is the last observed state of the run started by the turn.
	Run *core.Run
	// Messages holds the assistant messages not shown before, oldest first.
	Messages []core.Message
	// Polls counts the status polls issued while waiting.
	Polls int
}

// Runner coordinates chat turns against an AgentService. Public methods are
// safe for concurrent use; turns of one session are serialized.
type Runner struct {
	svc  service.AgentService
	opts Options
	sem  *semaphore.Weighted
}

// New constructs a Runner with optional overrides.
func New(svc service.AgentService, optFns ...func(o *Options)) *Runner {
	opts := Options{
		AgentSpec:       core.AgentSpec{}.WithDefaults(),
		PollInterval:    700 * time.Millisecond,
		PollMaxInterval: 5 * time.Second,
		PollMultiplier:  1.5,
		RunTimeout:      5 * time.Minute,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	r := &Runner{svc: svc, opts: opts}
	if opts.MaxConcurrentTurns > 0 {
		r.sem = semaphore.NewWeighted(opts.MaxConcurrentTurns)
	}
	return r
}

// EnsureAgent returns the agent id of the session, resolving it on first use.
func (r *Runner) EnsureAgent(ctx context.Context, sess *session.Session) (string, error) {
	if id := sess.AgentID(); id != "" {
		return id, nil
	}

	if r.opts.ExistingAgentID != "" {
		sess.SetAgentID(r.opts.ExistingAgentID)
		return r.opts.ExistingAgentID, nil
	}

	id, err := r.svc.CreateAgent(ctx, r.opts.AgentSpec)
	if err != nil {
		return "", fmt.Errorf("resolving agent: %w", err)
	}

	r.opts.Logger.Info("agent created", "session_id", sess.ID, "agent_id", id, "agent_name", r.opts.AgentSpec.Name)
	sess.SetAgentID(id)
	return id, nil
}

// EnsureThread returns the thread id of the session, creating one on first use.
func (r *Runner) EnsureThread(ctx context.Context, sess *session.Session) (string, error) {
	if id := sess.ThreadID(); id != "" {
		return id, nil
	}

	id, err := r.svc.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving thread: %w", err)
	}

	r.opts.Logger.Info("thread created", "session_id", sess.ID, "thread_id", id)
	sess.SetThreadID(id)
	return id, nil
}

// Turn sends text to the session's thread, runs the agent and returns the
// assistant messages the session has not shown yet. A run that ends in a
// terminal status other than completed yields a *core.RunError along with
// the result; exceeding RunTimeout yields core.ErrRunTimeout.
func (r *Runner) Turn(ctx context.Context, sess *session.Session, text string, onStatus StatusFunc) (*TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, core.ErrEmptyMessage
	}

	if !sess.TryBeginTurn() {
		return nil, core.ErrTurnInProgress
	}
	defer sess.EndTurn()

	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer r.sem.Release(1)
	}

	start := time.Now()

	agentID, err := r.EnsureAgent(ctx, sess)
	if err != nil {
		return nil, err
	}

	threadID, err := r.EnsureThread(ctx, sess)
	if err != nil {
		return nil, err
	}

	sess.AppendTurn(core.NewUserTurn(text))

	msgID, err := r.svc.PostMessage(ctx, threadID, text)
	if err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}
	sess.MarkSeen(msgID)

	run, err := r.svc.CreateRun(ctx, threadID, agentID)
	if err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}

	notify := statusNotifier(onStatus)
	notify(run.Status)

	final, polls, err := r.poll(ctx, threadID, run, notify)
	if err != nil {
		r.logRun(sess, threadID, run, polls, start, err)
		return &TurnResult{Run: run, Polls: polls}, err
	}

	msgs, err := r.collect(ctx, sess, threadID)
	if err != nil {
		return &TurnResult{Run: final, Polls: polls}, err
	}

	result := &TurnResult{Run: final, Messages: msgs, Polls: polls}

	var runErr error
	if final.Status != core.RunStatusCompleted {
		runErr = &core.RunError{Run: *final}
	}
	r.logRun(sess, threadID, final, polls, start, runErr)
	r.opts.Logger.Debug("turn finished", "session_id", sess.ID, "run_id", final.ID, "new_messages", len(msgs))

	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

// logRun writes the run record, scoped to the session when the logger supports it.
func (r *Runner) logRun(sess *session.Session, threadID string, run *core.Run, polls int, start time.Time, err error) {
	if cl, ok := r.opts.Logger.(*logging.ChatLogger); ok {
		cl.WithSession(sess.ID, threadID).LogRun(run.ID, string(run.Status), polls, time.Since(start), err)
		return
	}
	args := []any{"session_id", sess.ID, "thread_id", threadID, "run_id", run.ID, "status", run.Status, "polls", polls, "duration", time.Since(start)}
	if err != nil {
		r.opts.Logger.Error("run failed", append(args, "error", err)...)
		return
	}
	r.opts.Logger.Info("run finished", args...)
}

// Reset starts a fresh conversation for the session on its next turn.
func (r *Runner) Reset(sess *session.Session) error {
	if !sess.TryBeginTurn() {
		return core.ErrTurnInProgress
	}
	defer sess.EndTurn()

	r.opts.Logger.Info("conversation reset", "session_id", sess.ID, "thread_id", sess.ThreadID())
	sess.Reset()
	return nil
}

// poll waits until run leaves the pending statuses.
func (r *Runner) poll(ctx context.Context, threadID string, run *core.Run, notify StatusFunc) (*core.Run, int, error) {
	if !run.Status.Pending() {
		return run, 0, nil
	}

	pollCtx := ctx
	if r.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, r.opts.RunTimeout)
		defer cancel()
	}

	if err := wait(pollCtx, r.opts.PollInterval); err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("run %s: %w", run.ID, core.ErrRunTimeout)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.PollInterval
	b.MaxInterval = r.opts.PollMaxInterval
	b.Multiplier = r.opts.PollMultiplier
	b.RandomizationFactor = 0

	polls := 0
	operation := func() (*core.Run, error) {
		polls++
		cur, err := r.svc.GetRun(pollCtx, threadID, run.ID)
		if err != nil {
			if pollCtx.Err() != nil {
				return nil, backoff.Permanent(pollCtx.Err())
			}
			return nil, backoff.Permanent(fmt.Errorf("polling run %s: %w", run.ID, err))
		}
		notify(cur.Status)
		if cur.Status.Pending() {
			return nil, errRunPending
		}
		return cur, nil
	}

	retryOpts := []backoff.RetryOption{backoff.WithBackOff(b)}
	if r.opts.RunTimeout > 0 {
		retryOpts = append(retryOpts, backoff.WithMaxElapsedTime(r.opts.RunTimeout))
	} else {
		retryOpts = append(retryOpts, backoff.WithMaxElapsedTime(0))
	}

	final, err := backoff.Retry(pollCtx, operation, retryOpts...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, polls, ctx.Err()
		}
		if errors.Is(err, errRunPending) || errors.Is(err, context.DeadlineExceeded) {
			return nil, polls, fmt.Errorf("run %s: %w", run.ID, core.ErrRunTimeout)
		}
		return nil, polls, err
	}
	return final, polls, nil
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// collect lists the thread and returns unseen assistant messages, recording
// every unseen id and appending the assistant turns to the history.
func (r *Runner) collect(ctx context.Context, sess *session.Session, threadID string) ([]core.Message, error) {
	msgs, err := r.svc.ListMessages(ctx, threadID, core.OrderAscending)
	if err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	var fresh []core.Message
	for _, m := range msgs {
		if sess.MarkSeen(m.ID) == 0 {
			continue
		}
		if m.Role != core.RoleAssistant {
			continue
		}
		sess.AddFiles(core.ImageFileIDs(m.Parts)...)
		sess.AppendTurn(core.TurnFromMessage(m))
		fresh = append(fresh, m)
	}
	return fresh, nil
}

// statusNotifier forwards status changes only, never repeating a status.
func statusNotifier(fn StatusFunc) StatusFunc {
	var last core.RunStatus
	return func(s core.RunStatus) {
		if fn == nil || s == last {
			return
		}
		last = s
		fn(s)
	}
}
