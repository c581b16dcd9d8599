package lib

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/arcrest/arcrest/internal/engine"
	"github.com/arcrest/arcrest/internal/invoke"
	"github.com/arcrest/arcrest/internal/model"
	"github.com/arcrest/arcrest/internal/parse"
)

// Result is the outcome of one invocation.
type Result struct {
	// StatusCode is the final status: zero on success, nonzero on any
	// failure (usage error, unreadable archive, per-object errors).
	StatusCode int
	// Diagnostics is everything the invocation captured into the sink, in
	// order. Empty when no sink was passed or nothing was captured.
	Diagnostics string
}

// Invoke runs the restore tool once with the given command line arguments,
// exactly as the standalone binary would, but inside the calling process.
//
// args holds the arguments without the program name, e.g.
// ["--schema-only", "dump.arc"]. Diagnostics the tool would have written to
// stderr are captured into sink instead; pass nil to discard them. Invoke
// never terminates the process: every failure mode, including --help and
// malformed flags, comes back as a nonzero Result.StatusCode.
//
// The returned error reports embedding-level problems only (invalid client
// configuration, context cancellation). Tool-level failures are not errors.
func (c *Client) Invoke(ctx context.Context, args []string, sink *Sink) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	startedAt := time.Now().UTC()

	inv, err := invoke.New(invoke.Config{
		ProgName:    c.progName,
		Sink:        sink,
		MaxCleanups: c.maxCleanups,
		Logger:      c.logger,
	})
	if err != nil {
		return Result{}, fmt.Errorf("could not create invocation: %w", err)
	}
	if err := inv.Begin(); err != nil {
		return Result{}, fmt.Errorf("could not begin invocation: %w", err)
	}

	status, opts, report, err := c.execute(ctx, inv, args)
	if err != nil {
		return Result{}, err
	}

	if err := inv.Complete(); err != nil {
		return Result{}, fmt.Errorf("could not complete invocation: %w", err)
	}
	diagnostics, err := inv.End()
	if err != nil {
		return Result{}, fmt.Errorf("could not end invocation: %w", err)
	}

	c.recordRun(ctx, args, opts, status, report, startedAt)

	return Result{StatusCode: status, Diagnostics: diagnostics}, nil
}

// execute runs the parse and restore phases, translating a nonzero escape
// into the final status code.
func (c *Client) execute(ctx context.Context, inv *invoke.Invocation, args []string) (status int, opts *model.RestoreOptions, report *engine.RestoreReport, err error) {
	parser, err := parse.NewParser(parse.Config{
		Invocation: inv,
		Version:    c.version,
		Logger:     c.logger,
	})
	if err != nil {
		return 0, nil, nil, fmt.Errorf("could not create parser: %w", err)
	}

	opts, err = parser.Parse(args)
	if err != nil {
		status, err = escapeStatus(err)
		return status, nil, nil, err
	}

	eng, err := engine.New(engine.Config{
		Options:    *opts,
		Invocation: inv,
		Output:     c.output,
		Logger:     c.logger,
	})
	if err != nil {
		return 0, opts, nil, fmt.Errorf("could not create engine: %w", err)
	}

	report, err = eng.Run(ctx)
	if err != nil {
		status, err = escapeStatus(err)
		return status, opts, nil, err
	}

	// Per-object errors were tolerated during the run but still fail the
	// invocation as a whole.
	if report.Errors > 0 {
		return 1, opts, report, nil
	}

	return 0, opts, report, nil
}

// escapeStatus unwraps a nonzero escape into its status code. Any other error
// is an embedding bug and passes through.
func escapeStatus(err error) (int, error) {
	var exitErr *invoke.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, nil
	}
	return 0, err
}

// recordRun stores the finished invocation in the history ledger. History is
// best effort: a storage failure is logged and does not alter the result.
func (c *Client) recordRun(ctx context.Context, args []string, opts *model.RestoreOptions, status int, report *engine.RestoreReport, startedAt time.Time) {
	if c.repo == nil {
		return
	}

	run := model.RestoreRun{
		ID:         ulid.Make().String(),
		Args:       strings.Join(args, " "),
		StatusCode: status,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}
	if opts != nil {
		run.ArchivePath = opts.ArchivePath
	}
	if report != nil {
		run.Errors = report.Errors
	}

	if err := c.repo.CreateRestoreRun(ctx, run); err != nil {
		c.logger.Warningf("Could not record restore run: %s", err)
	}
}
