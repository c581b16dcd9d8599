package model

import "fmt"

// RestoreOptions is the options structure the argument parser populates and
// the restore engine consumes.
type RestoreOptions struct {
	// ArchivePath is the archive file or directory to restore from.
	ArchivePath string
	// Format forces the archive format, empty means sniff it from the archive.
	Format ArchiveFormat

	// DBPath is the SQLite database to restore into (-d). Mutually exclusive
	// with Filename.
	DBPath string
	// Filename is the SQL script output file (-f). Empty means the invocation
	// output writer.
	Filename string

	DataOnly   bool
	SchemaOnly bool
	Clean      bool
	Create     bool

	ExitOnError bool
	SingleTxn   bool
	Jobs        int

	// TOCSummary prints the archive table of contents instead of restoring.
	TOCSummary bool
	// TOCFile selects and reorders entries from an external list file (-L).
	TOCFile string

	NoOwner               bool
	ACLsSkip              bool
	DisableTriggers       bool
	NoDataForFailedTables bool
	Superuser             string
	Role                  string

	// Name filters. When any of these is non-empty only matching entries
	// (plus their data) are restored.
	Schemas   []string
	Tables    []string
	Indexes   []string
	Functions []string
	Triggers  []string

	// Sections is the section bitmask from --section flags. SectionNone means
	// no --section was given and every section is eligible.
	Sections Section

	Verbose bool
}

// Validate checks option combinations the same way the command line surface
// rejects them.
func (o RestoreOptions) Validate() error {
	if o.ArchivePath == "" {
		return fmt.Errorf("input archive is required: %w", ErrNotValid)
	}
	if o.DBPath != "" && o.Filename != "" {
		return fmt.Errorf("options -d/--dbname and -f/--file cannot be used together: %w", ErrNotValid)
	}
	if o.SingleTxn && o.Jobs > 1 {
		return fmt.Errorf("cannot specify both --single-transaction and multiple jobs: %w", ErrNotValid)
	}
	if o.DataOnly && o.SchemaOnly {
		return fmt.Errorf("options -a/--data-only and -s/--schema-only cannot be used together: %w", ErrNotValid)
	}
	if o.Jobs < 0 {
		return fmt.Errorf("invalid number of jobs %d: %w", o.Jobs, ErrNotValid)
	}
	return nil
}

// Selective reports whether any name filter is set.
func (o RestoreOptions) Selective() bool {
	return len(o.Schemas) > 0 || len(o.Tables) > 0 || len(o.Indexes) > 0 ||
		len(o.Functions) > 0 || len(o.Triggers) > 0
}

// WantSection reports whether a section is selected by the options, taking
// data-only/schema-only shortcuts into account.
func (o RestoreOptions) WantSection(s Section) bool {
	sections := o.Sections
	if sections == SectionNone {
		sections = SectionAll
	}
	if o.DataOnly {
		sections &= SectionData
	}
	if o.SchemaOnly {
		sections &= SectionPreData | SectionPostData
	}
	return sections&s != 0
}
