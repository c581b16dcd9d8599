package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/arcrest/arcrest/internal/log"
	"github.com/arcrest/arcrest/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository, used for
// tests and as reference implementation.
type Repository struct {
	runs   map[string]model.RestoreRun
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		runs:   map[string]model.RestoreRun{},
		logger: cfg.Logger,
	}, nil
}

// CreateRestoreRun stores a new restore run record.
func (r *Repository) CreateRestoreRun(ctx context.Context, run model.RestoreRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid restore run: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; ok {
		return fmt.Errorf("restore run %s: %w", run.ID, model.ErrAlreadyExists)
	}

	r.runs[run.ID] = run
	r.logger.Debugf("Created restore run in repository: %s", run.ID)

	return nil
}

// GetRestoreRun retrieves a restore run by ID.
func (r *Repository) GetRestoreRun(ctx context.Context, id string) (*model.RestoreRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("restore run %s: %w", id, model.ErrNotFound)
	}

	runCopy := run
	return &runCopy, nil
}

// ListRestoreRuns returns every stored restore run, oldest first.
func (r *Repository) ListRestoreRuns(ctx context.Context) ([]model.RestoreRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]model.RestoreRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.Before(runs[j].StartedAt) })

	return runs, nil
}

// Close is a no-op for the memory repository.
func (r *Repository) Close() error { return nil }
