package lib_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcrest/arcrest/internal/archive"
	"github.com/arcrest/arcrest/internal/model"
	"github.com/arcrest/arcrest/pkg/lib"
)

func writeTestArchive(t *testing.T) string {
	t.Helper()

	arch := model.Archive{
		DumpID:        "01JLIBTEST000000000000000X",
		FormatVersion: archive.FormatVersion,
		CompatVersion: "arcrest 1.0",
		DumpedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Entries: []model.TOCEntry{
			{
				DumpID:    1,
				Tag:       "users",
				Namespace: "public",
				Kind:      model.EntryKindTable,
				CreateSQL: "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);",
				DropSQL:   "DROP TABLE users;",
			},
			{
				DumpID:    2,
				Tag:       "users",
				Namespace: "public",
				Kind:      model.EntryKindTableData,
				DataSQL:   []string{"INSERT INTO users (id, name) VALUES (1, 'ada');"},
				DependsOn: []int{1},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "dump.arc")
	require.NoError(t, archive.WriteCustom(path, arch))
	return path
}

func TestInvokeUnknownFlagReportsUsageError(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{})
	require.NoError(t, err)
	defer client.Close()

	sink := lib.NewSink()
	res, err := client.Invoke(ctx, []string{"--bad-flag"}, sink)
	require.NoError(t, err)

	assert.Equal(1, res.StatusCode)
	assert.Contains(res.Diagnostics, "unrecognized option")
	assert.Contains(res.Diagnostics, `Try "arcrest --help" for more information.`)
}

func TestInvokeSchemaOnlySucceedsSilently(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	archPath := writeTestArchive(t)

	var out bytes.Buffer
	client, err := lib.New(ctx, lib.Config{Output: &out})
	require.NoError(t, err)
	defer client.Close()

	sink := lib.NewSink()
	res, err := client.Invoke(ctx, []string{"--schema-only", archPath}, sink)
	require.NoError(t, err)

	assert.Equal(0, res.StatusCode)
	assert.Empty(res.Diagnostics)
	assert.Contains(out.String(), "CREATE TABLE users")
	assert.NotContains(out.String(), "INSERT INTO users")
}

func TestInvokeRestoresIntoDatabase(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	archPath := writeTestArchive(t)
	dbPath := filepath.Join(t.TempDir(), "restored.db")

	client, err := lib.New(ctx, lib.Config{})
	require.NoError(t, err)
	defer client.Close()

	res, err := client.Invoke(ctx, []string{"-d", dbPath, archPath}, nil)
	require.NoError(t, err)

	assert.Equal(0, res.StatusCode)
	assert.FileExists(dbPath)
}

func TestInvokeReusedSinkStartsEmpty(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	archPath := writeTestArchive(t)

	client, err := lib.New(ctx, lib.Config{})
	require.NoError(t, err)
	defer client.Close()

	sink := lib.NewSink()

	res, err := client.Invoke(ctx, []string{"--bad-flag"}, sink)
	require.NoError(t, err)
	assert.Equal(1, res.StatusCode)
	assert.Contains(res.Diagnostics, "unrecognized option")

	// The second invocation must not see the first one's diagnostics.
	res, err = client.Invoke(ctx, []string{"--schema-only", archPath}, sink)
	require.NoError(t, err)
	assert.Equal(0, res.StatusCode)
	assert.Empty(res.Diagnostics)
}

func TestInvokeNilSinkDiscardsDiagnostics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{})
	require.NoError(t, err)
	defer client.Close()

	res, err := client.Invoke(ctx, []string{"--bad-flag"}, nil)
	require.NoError(t, err)

	assert.Equal(1, res.StatusCode)
	assert.Empty(res.Diagnostics)
}

func TestInvokeHelpReportsUsage(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{})
	require.NoError(t, err)
	defer client.Close()

	sink := lib.NewSink()
	res, err := client.Invoke(ctx, []string{"--help"}, sink)
	require.NoError(t, err)

	assert.Equal(1, res.StatusCode)
	assert.Contains(res.Diagnostics, "Usage:")
	assert.Contains(res.Diagnostics, "arcrest")
}

func TestInvokeVersionReportsVersion(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{Version: "v1.2.3"})
	require.NoError(t, err)
	defer client.Close()

	sink := lib.NewSink()
	res, err := client.Invoke(ctx, []string{"--version"}, sink)
	require.NoError(t, err)

	assert.Equal(1, res.StatusCode)
	assert.Contains(res.Diagnostics, "v1.2.3")
}

func TestInvokeRecordsHistory(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	archPath := writeTestArchive(t)

	client, err := lib.New(ctx, lib.Config{
		HistoryDBPath: filepath.Join(t.TempDir(), "history.db"),
	})
	require.NoError(t, err)
	defer client.Close()

	res, err := client.Invoke(ctx, []string{"--schema-only", archPath}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.StatusCode)

	res, err = client.Invoke(ctx, []string{"--bad-flag"}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.StatusCode)

	runs, err := client.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(0, runs[0].StatusCode)
	assert.Equal(archPath, runs[0].ArchivePath)
	assert.Equal(1, runs[1].StatusCode)
	assert.Equal("--bad-flag", runs[1].Args)
	assert.Empty(runs[1].ArchivePath)

	got, err := client.GetRun(ctx, runs[0].ID)
	require.NoError(t, err)
	assert.Equal(runs[0], *got)
}

func TestHistoryWithoutConfigurationFails(t *testing.T) {
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.ListRuns(ctx)
	assert.ErrorIs(t, err, lib.ErrNotValid)

	_, err = client.GetRun(ctx, "whatever")
	assert.ErrorIs(t, err, lib.ErrNotValid)
}

func TestGetMissingRunFails(t *testing.T) {
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{
		HistoryDBPath: filepath.Join(t.TempDir(), "history.db"),
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, lib.ErrNotFound)
}
