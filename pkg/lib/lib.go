package lib

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/arcrest/arcrest/internal/log"
	"github.com/arcrest/arcrest/internal/storage"
	"github.com/arcrest/arcrest/internal/storage/sqlite"
)

const defaultProgName = "arcrest"

// Config configures the SDK client.
//
// All fields are optional. An empty Config{} gives a silent client named
// "arcrest" that discards script output and keeps no run history.
type Config struct {
	// ProgName prefixes every diagnostic line the tool captures.
	// Default: "arcrest".
	ProgName string

	// Output receives rendered SQL scripts and TOC listings when the
	// invocation does not route them to a file with -f.
	// Default: discarded.
	Output io.Writer

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger

	// MaxCleanups bounds the per-invocation cleanup callback stack.
	// Default: 20.
	MaxCleanups int

	// HistoryDBPath is a SQLite database path for the run history ledger.
	// When empty (default) no history is kept.
	HistoryDBPath string

	// Version is reported by --version.
	// Default: "dev".
	Version string
}

func (c *Config) defaults() error {
	if c.ProgName == "" {
		c.ProgName = defaultProgName
	}
	if c.Output == nil {
		c.Output = io.Discard
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	return nil
}

// Client is the main SDK entry point for embedding the restore tool.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use; concurrent [Client.Invoke] calls are
// serialized because they share the configured output writer.
type Client struct {
	mu          sync.Mutex
	progName    string
	output      io.Writer
	logger      log.Logger
	maxCleanups int
	version     string
	repo        storage.Repository
	closeFn     func() error
}

// New creates a new SDK client.
//
// When [Config].HistoryDBPath is set the client opens (and migrates) the
// SQLite history database; the caller must call [Client.Close] when done to
// release it. Without a history path Close is a no-op but calling it is still
// correct:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Client{
		progName:    cfg.ProgName,
		output:      cfg.Output,
		logger:      cfg.Logger,
		maxCleanups: cfg.MaxCleanups,
		version:     cfg.Version,
	}

	if cfg.HistoryDBPath != "" {
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: cfg.HistoryDBPath,
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create history repository: %w", err)
		}
		c.repo = repo
		c.closeFn = repo.Close
	}

	return c, nil
}

// Close releases resources held by the client, including the history database
// connection. After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}
