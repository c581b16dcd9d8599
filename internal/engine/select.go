package engine

import (
	"github.com/arcrest/arcrest/internal/model"
)

// selectEntries filters the archive TOC down to the entries the options want,
// preserving TOC order. Skipped entries are counted in the report.
func selectEntries(arch model.Archive, opts model.RestoreOptions, report *RestoreReport) []model.TOCEntry {
	selected := make([]model.TOCEntry, 0, len(arch.Entries))

	for _, e := range arch.Entries {
		if !wantEntry(e, opts) {
			report.ObjectsSkipped++
			continue
		}
		selected = append(selected, e)
	}

	return selected
}

func wantEntry(e model.TOCEntry, opts model.RestoreOptions) bool {
	if !opts.WantSection(e.Section) {
		return false
	}

	if opts.ACLsSkip && e.Kind == model.EntryKindACL {
		return false
	}

	if len(opts.Schemas) > 0 && !inSchema(e, opts.Schemas) {
		return false
	}

	if opts.Selective() && !matchesSelection(e, opts) {
		return false
	}

	return true
}

func inSchema(e model.TOCEntry, schemas []string) bool {
	if e.Kind == model.EntryKindSchema {
		return contains(schemas, e.Tag)
	}
	// Entries without a namespace (extensions, roles) survive schema filters.
	if e.Namespace == "" {
		return true
	}
	return contains(schemas, e.Namespace)
}

// matchesSelection implements the selective restore semantics: once any name
// filter is set only the named objects (plus the data of named tables) are
// restored. A lone -n schema filter is not selective, it only constrains.
func matchesSelection(e model.TOCEntry, opts model.RestoreOptions) bool {
	onlySchemas := len(opts.Tables) == 0 && len(opts.Indexes) == 0 &&
		len(opts.Functions) == 0 && len(opts.Triggers) == 0
	if onlySchemas {
		return true
	}

	switch e.Kind {
	case model.EntryKindTable, model.EntryKindTableData:
		return contains(opts.Tables, e.Tag)
	case model.EntryKindIndex:
		return contains(opts.Indexes, e.Tag)
	case model.EntryKindFunction:
		return contains(opts.Functions, e.Tag)
	case model.EntryKindTrigger:
		return contains(opts.Triggers, e.Tag)
	default:
		return false
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
