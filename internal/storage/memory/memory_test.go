package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcrest/arcrest/internal/model"
	"github.com/arcrest/arcrest/internal/storage/memory"
)

func testRun(id string, started time.Time) model.RestoreRun {
	return model.RestoreRun{
		ID:          id,
		Args:        "--data-only dump.arc",
		ArchivePath: "dump.arc",
		StartedAt:   started,
		FinishedAt:  started.Add(time.Second),
	}
}

func TestCreateAndGetRestoreRun(t *testing.T) {
	assert := assert.New(t)
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	want := testRun("run1", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.CreateRestoreRun(ctx, want))

	got, err := repo.GetRestoreRun(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(want, *got)
}

func TestCreateRestoreRunDuplicateFails(t *testing.T) {
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	run := testRun("run1", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.CreateRestoreRun(ctx, run))

	err = repo.CreateRestoreRun(ctx, run)
	assert.ErrorIs(t, err, model.ErrAlreadyExists)
}

func TestGetMissingRestoreRunFails(t *testing.T) {
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	_, err = repo.GetRestoreRun(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListRestoreRunsOrdersByStart(t *testing.T) {
	assert := assert.New(t)
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	newer := testRun("run2", time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC))
	older := testRun("run1", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.CreateRestoreRun(ctx, newer))
	require.NoError(t, repo.CreateRestoreRun(ctx, older))

	runs, err := repo.ListRestoreRuns(ctx)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(older.ID, runs[0].ID)
	assert.Equal(newer.ID, runs[1].ID)
}
