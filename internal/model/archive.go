package model

import (
	"fmt"
	"time"
)

// ArchiveFormat identifies the on-disk layout of a dump archive.
type ArchiveFormat string

const (
	// ArchiveFormatUnknown means the format must be sniffed from the archive itself.
	ArchiveFormatUnknown ArchiveFormat = ""
	// ArchiveFormatCustom is the single-file binary archive format.
	ArchiveFormatCustom ArchiveFormat = "custom"
	// ArchiveFormatDirectory is the directory archive format (TOC file plus data files).
	ArchiveFormatDirectory ArchiveFormat = "directory"
)

// ParseArchiveFormat maps a user supplied format letter to an ArchiveFormat.
func ParseArchiveFormat(letter string) (ArchiveFormat, error) {
	switch letter {
	case "c", "C":
		return ArchiveFormatCustom, nil
	case "d", "D":
		return ArchiveFormatDirectory, nil
	default:
		return ArchiveFormatUnknown, fmt.Errorf("unrecognized archive format %q; please specify \"c\" or \"d\": %w", letter, ErrNotValid)
	}
}

// Section is the restore phase an archive entry belongs to.
type Section int

const (
	// SectionNone is an unset section.
	SectionNone Section = 0
	// SectionPreData contains object definitions restored before the data.
	SectionPreData Section = 1
	// SectionData contains table data.
	SectionData Section = 2
	// SectionPostData contains indexes, constraints and triggers restored after the data.
	SectionPostData Section = 4
	// SectionAll selects every section.
	SectionAll = SectionPreData | SectionData | SectionPostData
)

func (s Section) String() string {
	switch s {
	case SectionPreData:
		return "pre-data"
	case SectionData:
		return "data"
	case SectionPostData:
		return "post-data"
	default:
		return ""
	}
}

// ParseSection maps a --section argument to its Section bit.
func ParseSection(arg string) (Section, error) {
	switch arg {
	case "pre-data":
		return SectionPreData, nil
	case "data":
		return SectionData, nil
	case "post-data":
		return SectionPostData, nil
	default:
		return SectionNone, fmt.Errorf("unrecognized section name %q: %w", arg, ErrNotValid)
	}
}

// EntryKind is the object type of a TOC entry.
type EntryKind string

const (
	EntryKindSchema     EntryKind = "SCHEMA"
	EntryKindTable      EntryKind = "TABLE"
	EntryKindSequence   EntryKind = "SEQUENCE"
	EntryKindView       EntryKind = "VIEW"
	EntryKindIndex      EntryKind = "INDEX"
	EntryKindConstraint EntryKind = "CONSTRAINT"
	EntryKindTrigger    EntryKind = "TRIGGER"
	EntryKindFunction   EntryKind = "FUNCTION"
	EntryKindACL        EntryKind = "ACL"
	EntryKindComment    EntryKind = "COMMENT"
	EntryKindTableData  EntryKind = "TABLE DATA"
)

// DefaultSection returns the section an entry kind belongs to when the
// archive does not carry an explicit one.
func (k EntryKind) DefaultSection() Section {
	switch k {
	case EntryKindTableData:
		return SectionData
	case EntryKindIndex, EntryKindConstraint, EntryKindTrigger, EntryKindACL:
		return SectionPostData
	default:
		return SectionPreData
	}
}

// TOCEntry is a single object in a dump archive table of contents.
type TOCEntry struct {
	DumpID    int
	Tag       string
	Namespace string
	Owner     string
	Kind      EntryKind
	Section   Section
	CreateSQL string
	DropSQL   string
	// DataSQL holds one SQL statement per element. Only table data entries
	// carry data statements.
	DataSQL []string
	// DependsOn lists the dump IDs this entry depends on. A table data entry
	// depends on its table so failed table creations can veto their data.
	DependsOn []int
}

// Validate checks an entry is complete enough to be restored.
func (e TOCEntry) Validate() error {
	if e.DumpID <= 0 {
		return fmt.Errorf("entry dump id must be positive: %w", ErrNotValid)
	}
	if e.Tag == "" {
		return fmt.Errorf("entry %d: tag is required: %w", e.DumpID, ErrNotValid)
	}
	if e.Kind == "" {
		return fmt.Errorf("entry %d: kind is required: %w", e.DumpID, ErrNotValid)
	}
	return nil
}

// Archive is an in-memory dump archive: header metadata plus the ordered TOC.
type Archive struct {
	// DumpID identifies the dump that produced the archive (ULID).
	DumpID string
	// FormatVersion is the archive layout version.
	FormatVersion int
	// CompatVersion is the producing tool version, informational only.
	CompatVersion string
	DumpedAt      time.Time
	Entries       []TOCEntry
}

// Validate checks archive consistency: entries are valid and dump IDs unique.
func (a Archive) Validate() error {
	seen := make(map[int]struct{}, len(a.Entries))
	for _, e := range a.Entries {
		if err := e.Validate(); err != nil {
			return err
		}
		if _, ok := seen[e.DumpID]; ok {
			return fmt.Errorf("duplicated dump id %d: %w", e.DumpID, ErrNotValid)
		}
		seen[e.DumpID] = struct{}{}
	}
	return nil
}

// Entry returns the TOC entry with the given dump ID.
func (a Archive) Entry(dumpID int) (*TOCEntry, error) {
	for i := range a.Entries {
		if a.Entries[i].DumpID == dumpID {
			return &a.Entries[i], nil
		}
	}
	return nil, fmt.Errorf("dump id %d: %w", dumpID, ErrNotFound)
}
