package model

import (
	"fmt"
	"time"
)

// RestoreRun is one recorded invocation of the restore tool.
type RestoreRun struct {
	// ID is a ULID.
	ID          string
	Args        string
	ArchivePath string
	StatusCode  int
	Errors      int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Validate checks the run record is storable.
func (r RestoreRun) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("run id is required: %w", ErrNotValid)
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("run started timestamp is required: %w", ErrNotValid)
	}
	return nil
}
