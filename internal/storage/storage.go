package storage

import (
	"context"

	"github.com/arcrest/arcrest/internal/model"
)

// Repository is the interface for restore run history persistence.
type Repository interface {
	CreateRestoreRun(ctx context.Context, r model.RestoreRun) error
	GetRestoreRun(ctx context.Context, id string) (*model.RestoreRun, error)
	ListRestoreRuns(ctx context.Context) ([]model.RestoreRun, error)
	Close() error
}
