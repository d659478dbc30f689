// session.go implements the scoped lifecycle controller.
//
// A Session is the Go rendering of scoped resource acquisition: Open ensures
// the environment exists with its dependencies reconciled, and Close tears
// it down (for ephemeral environments) exactly once, on every exit path.
// Callers pair the two with defer:
//
//	session, err := env.Open(ctx, e, opts)
//	if err != nil { return err }
//	defer session.Close(ctx)
//	result, err := session.Exec(ctx, "python train.py", execOpts)
//
// A failure inside the scope propagates to the caller; the deferred Close
// still runs, so a failing command never leaks an ephemeral environment.
package env

import (
	"context"
	"fmt"

	"github.com/Wytamma/env-exec/internal/model"
)

// Options configures how a Session ensures its environment on entry.
type Options struct {
	// InstallMissing installs unsatisfied dependencies during entry instead
	// of failing. When false (the default), any missing dependency aborts
	// entry with a *model.MissingDependencyError.
	InstallMissing bool

	// SkipCheck disables dependency reconciliation entirely. The
	// environment is created if absent, but its contents are not verified
	// against the requested set.
	SkipCheck bool

	// Force recreates the environment even if it already exists. The
	// existing environment is removed first so the new one starts from
	// exactly the requested dependency set.
	Force bool

	// Capture collects output of commands executed through Session.Exec.
	Capture bool
}

// Session is a scoped handle on an ensured environment.
//
// It is not safe for concurrent use; the lifecycle model is single-threaded
// and every operation is a blocking external-tool call.
type Session struct {
	env   Environment
	opts  Options
	state model.SessionState
}

// Open enters the environment's scope.
//
// Entry performs, in order:
//  1. Removal of an existing environment when Force is set.
//  2. Creation, if the environment does not exist.
//  3. Dependency reconciliation (unless SkipCheck): if the live environment
//     already satisfies the requested set, no install step runs; otherwise
//     the missing set is installed (InstallMissing) or entry fails with a
//     *model.MissingDependencyError naming exactly the missing items.
//
// On success the session is in the ensured state and ready for Exec.
// On failure no session is returned and nothing needs closing — an
// environment created during a failed entry is left in place for
// inspection rather than half-torn-down.
func Open(ctx context.Context, e Environment, opts Options) (*Session, error) {
	exists, err := e.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query environment %q: %w", e.Name(), err)
	}

	if opts.Force && exists {
		// Recreate from scratch: a forced session must reflect exactly the
		// requested dependencies, not leftovers from a previous run.
		if err := e.Remove(ctx); err != nil {
			return nil, fmt.Errorf("failed to remove environment %q for recreation: %w", e.Name(), err)
		}
		exists = false
	}

	if !exists {
		if err := e.Create(ctx); err != nil {
			return nil, err
		}
	}

	if !opts.SkipCheck {
		missing, err := MissingDependencies(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("failed to list packages in environment %q: %w", e.Name(), err)
		}

		if len(missing) > 0 {
			if !opts.InstallMissing {
				return nil, &model.MissingDependencyError{Missing: missing}
			}
			if err := e.Install(ctx, missing); err != nil {
				return nil, err
			}
		}
	}

	return &Session{env: e, opts: opts, state: model.StateEnsured}, nil
}

// Environment returns the environment this session manages.
func (s *Session) Environment() Environment {
	return s.env
}

// State returns the session's current lifecycle state.
func (s *Session) State() model.SessionState {
	return s.state
}

// Exec runs a command inside the ensured environment.
//
// Output capture follows the session's Capture option. A non-zero exit is
// returned as a *model.ExecutionError together with the result; the error
// propagates to the caller and does not affect teardown.
func (s *Session) Exec(ctx context.Context, command string) (*model.ExecResult, error) {
	if s.state == model.StateTornDown {
		return nil, fmt.Errorf("session for environment %q is already closed", s.env.Name())
	}
	s.state = model.StateInUse

	return s.env.Exec(ctx, command, ExecOptions{Capture: s.opts.Capture})
}

// Close exits the scope. For ephemeral environments the environment is
// removed; explicitly named environments persist. Close is idempotent —
// only the first call performs teardown — so it is safe both to defer it
// and to call it explicitly on the success path.
func (s *Session) Close(ctx context.Context) error {
	if s.state == model.StateTornDown {
		return nil
	}
	s.state = model.StateTornDown

	if !s.env.Ephemeral() {
		return nil
	}
	return s.env.Remove(ctx)
}

// Run opens a session, invokes fn with it, and closes the session again.
// This is the convenience form of the scoped lifecycle for callers that
// want the whole create → use → destroy arc in one call.
//
// Teardown runs on every path. When fn fails, its error wins and a teardown
// failure is dropped — the body's failure is what the caller must see.
// When fn succeeds, a teardown failure is reported.
func Run(ctx context.Context, e Environment, opts Options, fn func(*Session) error) error {
	session, err := Open(ctx, e, opts)
	if err != nil {
		return err
	}

	fnErr := fn(session)

	if closeErr := session.Close(ctx); closeErr != nil && fnErr == nil {
		return fmt.Errorf("failed to tear down environment %q: %w", e.Name(), closeErr)
	}
	return fnErr
}
