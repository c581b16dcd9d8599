package lib

import (
	"time"

	"github.com/arcrest/arcrest/internal/invoke"
	"github.com/arcrest/arcrest/internal/model"
)

// Sink collects the diagnostics of one invocation. Create one with [NewSink]
// and pass it to [Client.Invoke]; read the collected text from
// [Result].Diagnostics. A Sink may be reused across invocations, each
// invocation starts it empty.
type Sink = invoke.Sink

// NewSink creates an empty diagnostics sink.
func NewSink() *Sink { return invoke.NewSink() }

// Run is one recorded invocation from the history ledger.
//
// This is a read-only record; it is only available when the client was
// configured with a history database path.
type Run struct {
	// ID is the unique identifier (ULID) assigned when the run was recorded.
	ID string
	// Args is the invocation command line, space joined.
	Args string
	// ArchivePath is the archive the run operated on. Empty when the
	// command line never parsed.
	ArchivePath string
	// StatusCode is the final status the invocation reported.
	StatusCode int
	// Errors is the number of per-object errors tolerated during the run.
	Errors int
	// StartedAt is when the invocation began.
	StartedAt time.Time
	// FinishedAt is when the invocation ended.
	FinishedAt time.Time
}

func fromInternalRun(r model.RestoreRun) Run {
	return Run{
		ID:          r.ID,
		Args:        r.Args,
		ArchivePath: r.ArchivePath,
		StatusCode:  r.StatusCode,
		Errors:      r.Errors,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}
