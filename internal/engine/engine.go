// Package engine implements the archive restore engine: it loads an archive,
// selects the wanted TOC entries and either renders them as a SQL script or
// applies them to a SQLite database.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/arcrest/arcrest/internal/archive"
	"github.com/arcrest/arcrest/internal/invoke"
	"github.com/arcrest/arcrest/internal/log"
	"github.com/arcrest/arcrest/internal/model"
)

// moduleName tags engine diagnostics in the captured output.
const moduleName = "archiver"

// RestoreReport summarizes one engine run. Per-object errors are counted
// here and folded into the invocation status; they never escape on their own.
type RestoreReport struct {
	ObjectsRestored int
	ObjectsSkipped  int
	Errors          int
}

// Config is the restore engine configuration.
type Config struct {
	Options model.RestoreOptions
	// Invocation receives diagnostics and cleanup registrations.
	Invocation *invoke.Invocation
	// Output receives the script or TOC listing when no -f file is given.
	Output io.Writer
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Invocation == nil {
		return fmt.Errorf("invocation is required")
	}
	if c.Output == nil {
		c.Output = io.Discard
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "engine.Engine"})
	return nil
}

// Engine restores a single archive according to the options. An Engine is
// built per invocation and not reused.
type Engine struct {
	opts   model.RestoreOptions
	inv    *invoke.Invocation
	output io.Writer
	logger log.Logger
}

// New creates a restore engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		opts:   cfg.Options,
		inv:    cfg.Invocation,
		output: cfg.Output,
		logger: cfg.Logger,
	}, nil
}

// Run performs the restore. Fatal conditions (unreadable archive, broken
// output file) capture a diagnostic and escape; per-object failures are
// counted in the report and the run completes normally.
func (e *Engine) Run(ctx context.Context) (*RestoreReport, error) {
	if err := e.opts.Validate(); err != nil {
		return nil, e.inv.Fatalf("", "%s\n", err)
	}

	arch, err := archive.Open(e.opts.ArchivePath, e.opts.Format)
	if err != nil {
		return nil, e.inv.Fatalf(moduleName, "could not open archive %q: %s\n", e.opts.ArchivePath, err)
	}

	e.logger.Debugf("Opened archive %q with %d entries", e.opts.ArchivePath, len(arch.Entries))

	if e.opts.TOCFile != "" {
		if err := e.applyTOCListFile(arch); err != nil {
			return nil, err
		}
	}

	out, err := e.outputWriter()
	if err != nil {
		return nil, err
	}

	report := &RestoreReport{}

	if e.opts.TOCSummary {
		if err := printTOCSummary(out, *arch); err != nil {
			return nil, e.inv.Fatalf(moduleName, "could not write TOC summary: %s\n", err)
		}
		return report, nil
	}

	entries := selectEntries(*arch, e.opts, report)

	if e.opts.DBPath != "" {
		err = e.restoreDatabase(ctx, *arch, entries, report)
	} else {
		err = e.renderScript(out, *arch, entries, report)
	}
	if err != nil {
		return nil, err
	}

	if report.Errors > 0 {
		e.inv.Capturef(moduleName, "WARNING: errors ignored on restore: %d\n", report.Errors)
	}

	e.logger.Infof("Restore finished: %d restored, %d skipped, %d errors",
		report.ObjectsRestored, report.ObjectsSkipped, report.Errors)

	return report, nil
}

func (e *Engine) applyTOCListFile(arch *model.Archive) error {
	f, err := os.Open(e.opts.TOCFile)
	if err != nil {
		return e.inv.Fatalf(moduleName, "could not open TOC list file %q: %s\n", e.opts.TOCFile, err)
	}
	defer f.Close()

	ids, err := archive.ParseTOCList(f)
	if err != nil {
		return e.inv.Fatalf(moduleName, "could not read TOC list file %q: %s\n", e.opts.TOCFile, err)
	}
	if err := archive.ApplyTOCList(arch, ids); err != nil {
		return e.inv.Fatalf(moduleName, "could not apply TOC list file %q: %s\n", e.opts.TOCFile, err)
	}

	return nil
}

// outputWriter returns the script/listing destination: the -f file when set,
// the configured writer otherwise. A created file is closed on unwind through
// the cleanup registry.
func (e *Engine) outputWriter() (io.Writer, error) {
	if e.opts.Filename == "" {
		return e.output, nil
	}

	f, err := os.Create(e.opts.Filename)
	if err != nil {
		return nil, e.inv.Fatalf(moduleName, "could not open output file %q: %s\n", e.opts.Filename, err)
	}
	if err := e.inv.OnExit(func(int) { _ = f.Close() }); err != nil {
		_ = f.Close()
		return nil, err
	}

	return f, nil
}
