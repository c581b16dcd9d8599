// Package invoke implements the reentrant invocation boundary of the restore
// tool: per-call state, captured diagnostics, cleanup callbacks and the
// structured escape that replaces process termination.
package invoke

import (
	"fmt"

	"github.com/arcrest/arcrest/internal/log"
)

// DefaultMaxCleanups is the default cleanup callback capacity.
const DefaultMaxCleanups = 20

// ExitError is the tagged outcome a nonzero escape propagates up the call
// stack until it reaches the invocation boundary, which reports Code as the
// final status. It replaces direct process termination.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("invocation terminated with status %d", e.Code)
}

type state int

const (
	stateIdle state = iota
	stateActive
	stateCompleted
)

// Config is the configuration of an Invocation.
type Config struct {
	// ProgName prefixes every captured diagnostic.
	ProgName string
	// Sink receives captured diagnostics. Nil disables capture.
	Sink *Sink
	// MaxCleanups bounds the cleanup callback stack. Defaults to
	// DefaultMaxCleanups.
	MaxCleanups int
	Logger      log.Logger
}

func (c *Config) defaults() error {
	if c.ProgName == "" {
		return fmt.Errorf("program name is required")
	}
	if c.MaxCleanups <= 0 {
		c.MaxCleanups = DefaultMaxCleanups
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "invoke.Invocation"})
	return nil
}

// CleanupFunc is a registered cleanup action. It receives the status code the
// unwind is carrying. Cleanup funcs must not escape themselves.
type CleanupFunc func(code int)

// Invocation holds all the state of one call of the embedded tool. Every
// collaborator (argument parser, restore engine) receives the Invocation
// explicitly, there is no package level state, so separate invocations never
// alias each other.
//
// An Invocation is not safe for concurrent use; one invocation is one call
// stack.
type Invocation struct {
	progName string
	sink     *Sink
	cleanups []CleanupFunc
	max      int
	state    state
	logger   log.Logger
}

// New creates an idle Invocation.
func New(cfg Config) (*Invocation, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Invocation{
		progName: cfg.ProgName,
		sink:     cfg.Sink,
		max:      cfg.MaxCleanups,
		logger:   cfg.Logger,
	}, nil
}

// Begin starts the invocation: resets the cleanup stack, resets the sink and
// activates the escape target. Valid only from idle.
func (i *Invocation) Begin() error {
	if i.state != stateIdle {
		return fmt.Errorf("invocation already active")
	}

	i.cleanups = nil
	if i.sink != nil {
		i.sink.reset()
	}
	i.state = stateActive

	i.logger.Debugf("Invocation started")
	return nil
}

// OnExit registers a cleanup callback to run on unwind, after all previously
// registered ones have been queued behind it (callbacks drain in reverse
// registration order). Exceeding the capacity is fatal: the stack is drained
// and the returned error is a nonzero escape.
func (i *Invocation) OnExit(fn CleanupFunc) error {
	if i.state != stateActive {
		return fmt.Errorf("cannot register cleanup outside an active invocation")
	}
	if len(i.cleanups) >= i.max {
		return i.Fatalf("", "out of on-exit cleanup slots\n")
	}

	i.cleanups = append(i.cleanups, fn)
	return nil
}

// Escape drains the cleanup stack, passing code to every callback in reverse
// registration order, and resets it. With code zero it then returns nil and
// the invocation continues; with a nonzero code it completes the invocation
// and returns an *ExitError the caller must propagate up to the boundary.
func (i *Invocation) Escape(code int) error {
	if i.state != stateActive {
		return fmt.Errorf("cannot escape outside an active invocation")
	}

	i.drain(code)

	if code == 0 {
		return nil
	}

	i.state = stateCompleted
	i.logger.Debugf("Invocation escaped with status %d", code)
	return &ExitError{Code: code}
}

// Fatalf captures a diagnostic and escapes with status 1.
func (i *Invocation) Fatalf(module, format string, args ...interface{}) error {
	i.Capturef(module, format, args...)
	return i.Escape(1)
}

// Complete marks a normal fall-through completion, draining any pending
// cleanups with code zero. It is a no-op when the invocation already
// completed through an escape.
func (i *Invocation) Complete() error {
	switch i.state {
	case stateCompleted:
		return nil
	case stateActive:
		i.drain(0)
		i.state = stateCompleted
		return nil
	default:
		return fmt.Errorf("cannot complete an idle invocation")
	}
}

// End closes the invocation and detaches the accumulated diagnostics for the
// caller. Valid only once the invocation completed. The Invocation returns to
// idle and may be reused; nothing from this call carries over.
func (i *Invocation) End() (diagnostics string, err error) {
	if i.state != stateCompleted {
		return "", fmt.Errorf("cannot end an invocation that has not completed")
	}

	if i.sink != nil {
		diagnostics = i.sink.detach()
	}
	i.cleanups = nil
	i.state = stateIdle

	i.logger.Debugf("Invocation ended")
	return diagnostics, nil
}

// PendingCleanups returns how many cleanup callbacks are currently registered.
func (i *Invocation) PendingCleanups() int { return len(i.cleanups) }

// drain runs every registered cleanup exactly once, most recently registered
// first, then unconditionally empties the stack.
func (i *Invocation) drain(code int) {
	for j := len(i.cleanups) - 1; j >= 0; j-- {
		i.cleanups[j](code)
	}
	i.cleanups = nil
}
