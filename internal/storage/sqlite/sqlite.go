package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arcrest/arcrest/internal/log"
	"github.com/arcrest/arcrest/internal/model"
	"github.com/arcrest/arcrest/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateRestoreRun stores a new restore run record.
func (r *Repository) CreateRestoreRun(ctx context.Context, run model.RestoreRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid restore run: %w", err)
	}

	query := `
		INSERT INTO restore_runs (
			id, args, archive_path, status_code, errors, started_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		run.ID,
		run.Args,
		run.ArchivePath,
		run.StatusCode,
		run.Errors,
		run.StartedAt.Unix(),
		run.FinishedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: restore_runs.") {
			return fmt.Errorf("restore run already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert restore run: %w", err)
	}

	r.logger.Debugf("Created restore run in repository: %s", run.ID)
	return nil
}

// GetRestoreRun retrieves a restore run by ID.
func (r *Repository) GetRestoreRun(ctx context.Context, id string) (*model.RestoreRun, error) {
	query := `
		SELECT id, args, archive_path, status_code, errors, started_at, finished_at
		FROM restore_runs
		WHERE id = ?
	`

	row := r.db.QueryRowContext(ctx, query, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("restore run %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query restore run: %w", err)
	}

	return run, nil
}

// ListRestoreRuns returns every stored restore run, oldest first.
func (r *Repository) ListRestoreRuns(ctx context.Context) ([]model.RestoreRun, error) {
	query := `
		SELECT id, args, archive_path, status_code, errors, started_at, finished_at
		FROM restore_runs
		ORDER BY started_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query restore runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RestoreRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan restore run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate restore runs: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*model.RestoreRun, error) {
	var (
		run                  model.RestoreRun
		startedAt, finishedAt int64
	)

	err := s.Scan(&run.ID, &run.Args, &run.ArchivePath, &run.StatusCode, &run.Errors, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	run.StartedAt = time.Unix(startedAt, 0).UTC()
	run.FinishedAt = time.Unix(finishedAt, 0).UTC()

	return &run, nil
}
