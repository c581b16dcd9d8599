package lib_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arcrest/arcrest/internal/archive"
	"github.com/arcrest/arcrest/internal/model"
	"github.com/arcrest/arcrest/pkg/lib"
)

// exampleArchive writes a minimal archive to restore in the examples.
func exampleArchive(dir string) (string, error) {
	arch := model.Archive{
		DumpID:        "01JLIBEXAMPLE0000000000000",
		FormatVersion: archive.FormatVersion,
		CompatVersion: "arcrest 1.0",
		DumpedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Entries: []model.TOCEntry{
			{
				DumpID:    1,
				Tag:       "users",
				Namespace: "public",
				Kind:      model.EntryKindTable,
				CreateSQL: "CREATE TABLE users (id INTEGER PRIMARY KEY);",
				DropSQL:   "DROP TABLE users;",
			},
		},
	}

	path := filepath.Join(dir, "dump.arc")
	if err := archive.WriteCustom(path, arch); err != nil {
		return "", err
	}
	return path, nil
}

// This example renders an archive as a SQL script into a buffer.
func Example_script() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "arcrest-example-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	archPath, err := exampleArchive(dir)
	if err != nil {
		panic(err)
	}

	var script bytes.Buffer
	client, err := lib.New(ctx, lib.Config{Output: &script})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	res, err := client.Invoke(ctx, []string{"--schema-only", archPath}, nil)
	if err != nil {
		panic(err)
	}

	fmt.Printf("status: %d\n", res.StatusCode)
	fmt.Printf("has create: %v\n", bytes.Contains(script.Bytes(), []byte("CREATE TABLE users")))

	// Output:
	// status: 0
	// has create: true
}

// This example shows how usage errors surface as diagnostics instead of
// terminating the process.
func Example_usageError() {
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	sink := lib.NewSink()
	res, err := client.Invoke(ctx, []string{"--bad-flag"}, sink)
	if err != nil {
		panic(err)
	}

	fmt.Printf("status: %d\n", res.StatusCode)
	fmt.Print(res.Diagnostics)

	// Output:
	// status: 1
	// arcrest: unrecognized option: --bad-flag
	// Try "arcrest --help" for more information.
}
