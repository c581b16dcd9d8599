package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/oklog/run"
	"github.com/sirupsen/logrus"
	"k8s.io/client-go/util/homedir"

	"github.com/arcrest/arcrest/internal/log"
	loglogrus "github.com/arcrest/arcrest/internal/log/logrus"
	"github.com/arcrest/arcrest/pkg/lib"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// envConfig is the CLI wrapper configuration. The restore command line itself
// is owned by the tool's parser, so wrapper settings come from the
// environment instead of flags.
type envConfig struct {
	Debug     bool
	NoLog     bool
	NoColor   bool
	LoggerFmt string
	HistoryDB string
	NoHistory bool
}

func envConfigFromEnv() envConfig {
	return envConfig{
		Debug:     os.Getenv("ARCREST_DEBUG") != "",
		NoLog:     os.Getenv("ARCREST_NO_LOG") != "",
		NoColor:   os.Getenv("ARCREST_NO_COLOR") != "",
		LoggerFmt: os.Getenv("ARCREST_LOGGER"),
		HistoryDB: os.Getenv("ARCREST_HISTORY_DB"),
		NoHistory: os.Getenv("ARCREST_NO_HISTORY") != "",
	}
}

// Run runs the main application and returns the process exit status.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) (int, error) {
	cfg := envConfigFromEnv()
	logger := getLogger(cfg, stderr)

	historyDB := cfg.HistoryDB
	if historyDB == "" && !cfg.NoHistory {
		historyDB = filepath.Join(homedir.HomeDir(), ".arcrest", "history.db")
	}
	if cfg.NoHistory {
		historyDB = ""
	}

	client, err := lib.New(ctx, lib.Config{
		Output:        stdout,
		Logger:        logger,
		HistoryDBPath: historyDB,
		Version:       Version,
	})
	if err != nil {
		return 1, fmt.Errorf("could not create client: %w", err)
	}
	defer client.Close()

	sink := lib.NewSink()
	var res lib.Result

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Restore invocation.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				var err error
				res, err = client.Invoke(ctx, args[1:], sink)
				if err != nil {
					return fmt.Errorf("invocation failed: %w", err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	if err := g.Run(); err != nil {
		return 1, err
	}

	// Diagnostics go to stderr like the tool would write them itself.
	fmt.Fprint(stderr, res.Diagnostics)

	return res.StatusCode, nil
}

// getLogger returns the application logger.
func getLogger(cfg envConfig, stderr io.Writer) log.Logger {
	if cfg.NoLog {
		return log.Noop
	}

	logrusLog := logrus.New()
	logrusLog.Out = stderr // Logger goes to stderr (so it can split stdout prints).
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if cfg.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	} else {
		// The tool reports through captured diagnostics; keep the logger
		// quiet unless debugging.
		logrusLogEntry.Logger.SetLevel(logrus.ErrorLevel)
	}

	// Log format.
	switch cfg.LoggerFmt {
	case "json":
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !cfg.NoColor,
			DisableColors: cfg.NoColor,
		})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled") // Will log only when debug enabled.

	return logger
}

func main() {
	ctx := context.Background()
	status, err := Run(ctx, os.Args, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	os.Exit(status)
}
