package parse_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcrest/arcrest/internal/invoke"
	"github.com/arcrest/arcrest/internal/model"
	"github.com/arcrest/arcrest/internal/parse"
)

func newParser(t *testing.T, sink *invoke.Sink) (*parse.Parser, *invoke.Invocation) {
	t.Helper()

	inv, err := invoke.New(invoke.Config{ProgName: "arcrest", Sink: sink})
	require.NoError(t, err)
	require.NoError(t, inv.Begin())

	p, err := parse.NewParser(parse.Config{Invocation: inv, Version: "1.2.3"})
	require.NoError(t, err)

	return p, inv
}

func assertEscapesWithStatusOne(t *testing.T, err error) {
	t.Helper()

	var exitErr *invoke.ExitError
	require.True(t, errors.As(err, &exitErr), "expected an escape, got: %v", err)
	assert.Equal(t, 1, exitErr.Code)
}

func TestParseValidArguments(t *testing.T) {
	tests := map[string]struct {
		args     string
		expCheck func(t *testing.T, opts *model.RestoreOptions)
	}{
		"A bare archive should use defaults.": {
			args: "dump.arc",
			expCheck: func(t *testing.T, opts *model.RestoreOptions) {
				assert.Equal(t, "dump.arc", opts.ArchivePath)
				assert.Equal(t, model.ArchiveFormatUnknown, opts.Format)
				assert.Equal(t, 1, opts.Jobs)
				assert.False(t, opts.ExitOnError)
			},
		},

		"Schema only restore into a database should map all flags.": {
			args: "--schema-only -d out.db -F c dump.arc",
			expCheck: func(t *testing.T, opts *model.RestoreOptions) {
				assert.True(t, opts.SchemaOnly)
				assert.Equal(t, "out.db", opts.DBPath)
				assert.Equal(t, model.ArchiveFormatCustom, opts.Format)
			},
		},

		"Single transaction should imply exit on error.": {
			args: "-1 -d out.db dump.arc",
			expCheck: func(t *testing.T, opts *model.RestoreOptions) {
				assert.True(t, opts.SingleTxn)
				assert.True(t, opts.ExitOnError)
			},
		},

		"Repeated sections should accumulate into the bitmask.": {
			args: "--section pre-data --section post-data dump.arc",
			expCheck: func(t *testing.T, opts *model.RestoreOptions) {
				assert.True(t, opts.WantSection(model.SectionPreData))
				assert.False(t, opts.WantSection(model.SectionData))
				assert.True(t, opts.WantSection(model.SectionPostData))
			},
		},

		"Name filters should be repeatable.": {
			args: "-t users -t orders -n public dump.arc",
			expCheck: func(t *testing.T, opts *model.RestoreOptions) {
				assert.Equal(t, []string{"users", "orders"}, opts.Tables)
				assert.Equal(t, []string{"public"}, opts.Schemas)
				assert.True(t, opts.Selective())
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			p, _ := newParser(t, nil)

			opts, err := p.Parse(splitArgs(test.args))

			require.NoError(t, err)
			test.expCheck(t, opts)
		})
	}
}

func TestParseUsageErrors(t *testing.T) {
	tests := map[string]struct {
		args    string
		expDiag string
	}{
		"An unknown flag should be reported as unrecognized.": {
			args:    "--bad-flag dump.arc",
			expDiag: "unrecognized option",
		},

		"A missing archive argument should be reported.": {
			args:    "--schema-only",
			expDiag: "required argument 'archive' not provided",
		},

		"Database and file output together should conflict.": {
			args:    "-d out.db -f out.sql dump.arc",
			expDiag: "options -d/--dbname and -f/--file cannot be used together",
		},

		"Single transaction with multiple jobs should conflict.": {
			args:    "-1 -j 4 dump.arc",
			expDiag: "cannot specify both --single-transaction and multiple jobs",
		},

		"Data only with schema only should conflict.": {
			args:    "-a -s dump.arc",
			expDiag: "options -a/--data-only and -s/--schema-only cannot be used together",
		},

		"An unknown format letter should be reported.": {
			args:    "-F z dump.arc",
			expDiag: `unrecognized archive format "z"`,
		},

		"An unknown section name should be reported.": {
			args:    "--section nope dump.arc",
			expDiag: `unrecognized section name "nope"`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			sink := invoke.NewSink()
			p, _ := newParser(t, sink)

			opts, err := p.Parse(splitArgs(test.args))

			assert.Nil(opts)
			assertEscapesWithStatusOne(t, err)
			assert.Contains(sink.String(), test.expDiag)
			assert.Contains(sink.String(), `Try "arcrest --help" for more information.`)
		})
	}
}

func TestParseHelpAndVersion(t *testing.T) {
	tests := map[string]struct {
		args    string
		expDiag string
	}{
		"Help should capture the usage text.": {
			args:    "--help",
			expDiag: "Usage:\n  arcrest [OPTION]... ARCHIVE",
		},

		"The short help spelling should work too.": {
			args:    "-?",
			expDiag: "Options controlling the restore:",
		},

		"Version should capture the version string.": {
			args:    "--version",
			expDiag: "arcrest (archive restore) 1.2.3",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			sink := invoke.NewSink()
			p, _ := newParser(t, sink)

			opts, err := p.Parse(splitArgs(test.args))

			assert.Nil(opts)
			assertEscapesWithStatusOne(t, err)
			assert.Contains(sink.String(), test.expDiag)
		})
	}
}

func splitArgs(s string) []string {
	return strings.Fields(s)
}
