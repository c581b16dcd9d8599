package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/arcrest/arcrest/internal/model"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// errStopRestore cancels the parallel data phase when --exit-on-error hit a
// failure; the escape itself is raised once the workers stopped.
var errStopRestore = fmt.Errorf("restore stopped on first error")

// restoreDatabase applies the selected entries directly to a SQLite database.
func (e *Engine) restoreDatabase(ctx context.Context, arch model.Archive, entries []model.TOCEntry, report *RestoreReport) error {
	if e.opts.Create {
		if dir := filepath.Dir(e.opts.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return e.inv.Fatalf(moduleName, "could not create database directory: %s\n", err)
			}
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", e.opts.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return e.inv.Fatalf(moduleName, "could not open database %q: %s\n", e.opts.DBPath, err)
	}

	// The connection is released through the cleanup registry so it also
	// closes when a later step escapes.
	if err := e.inv.OnExit(func(int) { _ = db.Close() }); err != nil {
		_ = db.Close()
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		return e.inv.Fatalf(moduleName, "could not connect to database %q: %s\n", e.opts.DBPath, err)
	}

	r := &dbRestorer{
		engine: e,
		report: report,
		failed: map[int]bool{},
	}

	var target execer = db
	if e.opts.SingleTxn {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return e.inv.Fatalf(moduleName, "could not begin transaction: %s\n", err)
		}
		// A nonzero unwind rolls the whole restore back; after a commit the
		// rollback is a no-op.
		if err := e.inv.OnExit(func(code int) {
			if code != 0 {
				_ = tx.Rollback()
			}
		}); err != nil {
			_ = tx.Rollback()
			return err
		}
		target = tx
	}

	if e.opts.DisableTriggers {
		if _, err := target.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON;"); err != nil {
			e.logger.Warningf("could not defer foreign keys: %v", err)
		}
	}

	if e.opts.Clean {
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].DropSQL == "" {
				continue
			}
			if _, err := r.execOne(ctx, target, entries[i], entries[i].DropSQL); err != nil {
				return err
			}
		}
	}

	for _, section := range []model.Section{model.SectionPreData, model.SectionData, model.SectionPostData} {
		sectionEntries := entriesInSection(entries, section)
		if len(sectionEntries) == 0 {
			continue
		}

		if section == model.SectionData && e.opts.Jobs > 1 && !e.opts.SingleTxn {
			if err := r.applyParallel(ctx, target, sectionEntries); err != nil {
				return err
			}
			continue
		}

		for _, entry := range sectionEntries {
			if err := r.applyEntry(ctx, target, entry); err != nil {
				return err
			}
		}
	}

	if tx, ok := target.(*sql.Tx); ok {
		if err := tx.Commit(); err != nil {
			return e.inv.Fatalf(moduleName, "could not commit transaction: %s\n", err)
		}
	}

	return nil
}

// dbRestorer tracks restore progress. The mutex serializes report updates and
// diagnostic captures during the parallel data phase.
type dbRestorer struct {
	engine *Engine
	report *RestoreReport
	// failed marks dump IDs of tables whose creation failed, so
	// --no-data-for-failed-tables can veto their data.
	failed map[int]bool
	mu     sync.Mutex
}

// applyEntry executes one entry. Failures are counted and reported, not
// escalated, unless --exit-on-error is set.
func (r *dbRestorer) applyEntry(ctx context.Context, target execer, entry model.TOCEntry) error {
	if r.skip(entry) {
		r.mu.Lock()
		r.report.ObjectsSkipped++
		r.mu.Unlock()
		r.engine.logger.Debugf("Skipped entry %d (%s %s)", entry.DumpID, entry.Kind, entry.Tag)
		return nil
	}

	statements := entry.DataSQL
	if entry.Kind != model.EntryKindTableData {
		statements = []string{entry.CreateSQL}
	}

	for _, stmt := range statements {
		if stmt == "" {
			continue
		}
		ok, err := r.execOne(ctx, target, entry, stmt)
		if err != nil {
			return err
		}
		if !ok {
			// Remaining statements of a failed entry are not attempted.
			return nil
		}
	}

	r.mu.Lock()
	r.report.ObjectsRestored++
	r.mu.Unlock()

	return nil
}

// execOne runs a single statement. Ordinary failures are recorded in the
// report and diagnostics and reported as ok=false; the returned error is
// only non-nil when the failure must unwind (--exit-on-error).
func (r *dbRestorer) execOne(ctx context.Context, target execer, entry model.TOCEntry, stmt string) (bool, error) {
	_, err := target.ExecContext(ctx, stmt)
	if err == nil {
		return true, nil
	}

	r.mu.Lock()
	r.report.Errors++
	if entry.Kind == model.EntryKindTable {
		r.failed[entry.DumpID] = true
	}
	r.engine.inv.Capturef(moduleName, "could not execute query: %s\nCommand was: %s\n", err, stmt)
	r.mu.Unlock()

	if r.engine.opts.ExitOnError {
		return false, r.engine.inv.Escape(1)
	}

	return false, nil
}

func (r *dbRestorer) skip(entry model.TOCEntry) bool {
	// Privilege and comment entries carry SQL the target database does not
	// speak; they only make sense in script mode.
	if entry.Kind == model.EntryKindACL || entry.Kind == model.EntryKindComment {
		return true
	}

	if entry.Kind == model.EntryKindTableData && r.engine.opts.NoDataForFailedTables {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, dep := range entry.DependsOn {
			if r.failed[dep] {
				return true
			}
		}
	}

	return false
}

// applyParallel restores data entries with up to --jobs workers. The escape,
// if any, is raised once after all workers stopped: the invocation is a
// single call stack and must not be escaped from two goroutines.
func (r *dbRestorer) applyParallel(ctx context.Context, target execer, entries []model.TOCEntry) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.engine.opts.Jobs)

	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			if r.skip(entry) {
				r.mu.Lock()
				r.report.ObjectsSkipped++
				r.mu.Unlock()
				return nil
			}

			for _, stmt := range entry.DataSQL {
				if _, err := target.ExecContext(gctx, stmt); err != nil {
					r.mu.Lock()
					r.report.Errors++
					r.engine.inv.Capturef(moduleName, "could not execute query: %s\nCommand was: %s\n", err, stmt)
					r.mu.Unlock()

					if r.engine.opts.ExitOnError {
						return errStopRestore
					}
					return nil
				}
			}

			r.mu.Lock()
			r.report.ObjectsRestored++
			r.mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return r.engine.inv.Escape(1)
	}

	return nil
}

func entriesInSection(entries []model.TOCEntry, section model.Section) []model.TOCEntry {
	out := make([]model.TOCEntry, 0, len(entries))
	for _, e := range entries {
		if e.Section == section {
			out = append(out, e)
		}
	}
	return out
}
