// Package parse turns a restore command line into a RestoreOptions structure,
// reporting malformed input through the invocation diagnostics and a nonzero
// escape instead of terminating the process.
package parse

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/arcrest/arcrest/internal/invoke"
	"github.com/arcrest/arcrest/internal/log"
	"github.com/arcrest/arcrest/internal/model"
)

// Config is the parser configuration.
type Config struct {
	// Invocation receives diagnostics and carries the escape on usage errors.
	Invocation *invoke.Invocation
	// Version is reported by --version.
	Version string
	Logger  log.Logger
}

func (c *Config) defaults() error {
	if c.Invocation == nil {
		return fmt.Errorf("invocation is required")
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "parse.Parser"})
	return nil
}

// Parser maps command line arguments to restore options.
type Parser struct {
	inv     *invoke.Invocation
	version string
	logger  log.Logger
}

// NewParser creates a new argument parser bound to an invocation.
func NewParser(cfg Config) (*Parser, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Parser{
		inv:     cfg.Invocation,
		version: cfg.Version,
		logger:  cfg.Logger,
	}, nil
}

// Parse parses args (without the program name) into restore options. Usage
// errors, --help and --version capture a diagnostic and return a nonzero
// escape; the restore engine must not run in those cases.
func (p *Parser) Parse(args []string) (*model.RestoreOptions, error) {
	// Help and version short-circuit before flag parsing, same as the
	// terminating tool did.
	if len(args) > 0 {
		switch args[0] {
		case "--help", "-?":
			p.inv.Capturef("", "%s", usageText)
			return nil, p.inv.Escape(1)
		case "--version", "-V":
			p.inv.Capturef("", "arcrest (archive restore) %s\n", p.version)
			return nil, p.inv.Escape(1)
		}
	}

	var (
		opts         model.RestoreOptions
		formatLetter string
		sections     []string
	)

	app := kingpin.New("arcrest", "Restores a database from an archive created by arcdump.")
	app.Terminate(func(int) {})
	app.UsageWriter(io.Discard)
	app.ErrorWriter(io.Discard)
	app.DefaultEnvars()

	app.Flag("data-only", "Restore only the data, no schema.").Short('a').BoolVar(&opts.DataOnly)
	app.Flag("clean", "Drop database objects before recreating them.").Short('c').BoolVar(&opts.Clean)
	app.Flag("create", "Include commands to create the target database.").Short('C').BoolVar(&opts.Create)
	app.Flag("dbname", "Restore directly into this SQLite database file.").Short('d').StringVar(&opts.DBPath)
	app.Flag("exit-on-error", "Exit on error, default is to continue.").Short('e').BoolVar(&opts.ExitOnError)
	app.Flag("file", "Output file name for the generated script.").Short('f').StringVar(&opts.Filename)
	app.Flag("format", "Archive format (c or d, sniffed from the archive when not given).").Short('F').StringVar(&formatLetter)
	app.Flag("jobs", "Number of parallel jobs for the data phase.").Short('j').Default("1").IntVar(&opts.Jobs)
	app.Flag("list", "Print a summarized TOC of the archive.").Short('l').BoolVar(&opts.TOCSummary)
	app.Flag("use-list", "Use the table of contents from this file to select and order output.").Short('L').StringVar(&opts.TOCFile)
	app.Flag("schema", "Restore only objects in this schema.").Short('n').StringsVar(&opts.Schemas)
	app.Flag("no-owner", "Skip restoration of object ownership.").Short('O').BoolVar(&opts.NoOwner)
	app.Flag("function", "Restore named function.").Short('P').StringsVar(&opts.Functions)
	app.Flag("schema-only", "Restore only the schema, no data.").Short('s').BoolVar(&opts.SchemaOnly)
	app.Flag("superuser", "Superuser name to use for disabling triggers.").Short('S').StringVar(&opts.Superuser)
	app.Flag("table", "Restore named table.").Short('t').StringsVar(&opts.Tables)
	app.Flag("trigger", "Restore named trigger.").Short('T').StringsVar(&opts.Triggers)
	app.Flag("index", "Restore named index.").Short('I').StringsVar(&opts.Indexes)
	app.Flag("no-privileges", "Skip restoration of access privileges (grant/revoke).").Short('x').BoolVar(&opts.ACLsSkip)
	app.Flag("single-transaction", "Restore as a single transaction.").Short('1').BoolVar(&opts.SingleTxn)
	app.Flag("disable-triggers", "Disable triggers during data-only restore.").BoolVar(&opts.DisableTriggers)
	app.Flag("no-data-for-failed-tables", "Do not restore data of tables that could not be created.").BoolVar(&opts.NoDataForFailedTables)
	app.Flag("role", "Do SET ROLE before restore.").StringVar(&opts.Role)
	app.Flag("section", "Restore named section (pre-data, data or post-data). Repeatable.").StringsVar(&sections)
	app.Flag("verbose", "Verbose mode.").Short('v').BoolVar(&opts.Verbose)
	app.Arg("archive", "Input archive file or directory.").Required().StringVar(&opts.ArchivePath)

	if _, err := app.Parse(args); err != nil {
		msg := err.Error()
		if strings.Contains(msg, "unknown") {
			// Kingpin says `unknown long flag '--x'`; report the flag itself.
			if start := strings.Index(msg, "'"); start >= 0 {
				if end := strings.LastIndex(msg, "'"); end > start {
					msg = msg[start+1 : end]
				}
			}
			return nil, p.usageErrorf("unrecognized option: %s\n", msg)
		}
		return nil, p.usageErrorf("%s\n", msg)
	}

	if formatLetter != "" {
		format, err := model.ParseArchiveFormat(formatLetter)
		if err != nil {
			return nil, p.usageErrorf("unrecognized archive format %q; please specify \"c\" or \"d\"\n", formatLetter)
		}
		opts.Format = format
	}

	for _, s := range sections {
		section, err := model.ParseSection(s)
		if err != nil {
			return nil, p.usageErrorf("unrecognized section name %q\n", s)
		}
		opts.Sections |= section
	}

	// Should get at most one of -d and -f, else the user is confused.
	if opts.DBPath != "" && opts.Filename != "" {
		return nil, p.usageErrorf("options -d/--dbname and -f/--file cannot be used together\n")
	}
	if opts.DataOnly && opts.SchemaOnly {
		return nil, p.usageErrorf("options -a/--data-only and -s/--schema-only cannot be used together\n")
	}

	// Can't do single transaction mode with multiple connections.
	if opts.SingleTxn && opts.Jobs > 1 {
		return nil, p.usageErrorf("cannot specify both --single-transaction and multiple jobs\n")
	}

	// Single transaction mode implies stopping at the first error.
	if opts.SingleTxn {
		opts.ExitOnError = true
	}

	p.logger.Debugf("Parsed restore options for archive %q", opts.ArchivePath)

	return &opts, nil
}

// usageErrorf captures the error plus the help hint and escapes with status 1.
func (p *Parser) usageErrorf(format string, args ...interface{}) error {
	p.inv.Capturef("", format, args...)
	p.inv.Capturef("", "Try \"arcrest --help\" for more information.\n")
	return p.inv.Escape(1)
}
