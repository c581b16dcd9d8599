package lib

import (
	"context"
	"fmt"
)

// ListRuns returns every recorded invocation, oldest first.
//
// Returns [ErrNotValid] when the client was created without a history
// database path.
func (c *Client) ListRuns(ctx context.Context) ([]Run, error) {
	if c.repo == nil {
		return nil, fmt.Errorf("history is not configured: %w", ErrNotValid)
	}

	internalRuns, err := c.repo.ListRestoreRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	runs := make([]Run, 0, len(internalRuns))
	for _, r := range internalRuns {
		runs = append(runs, fromInternalRun(r))
	}

	return runs, nil
}

// GetRun retrieves one recorded invocation by ID.
//
// Returns [ErrNotFound] when no run with that ID exists and [ErrNotValid]
// when the client was created without a history database path.
func (c *Client) GetRun(ctx context.Context, id string) (*Run, error) {
	if c.repo == nil {
		return nil, fmt.Errorf("history is not configured: %w", ErrNotValid)
	}

	internalRun, err := c.repo.GetRestoreRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not get run: %w", err)
	}

	run := fromInternalRun(*internalRun)
	return &run, nil
}
