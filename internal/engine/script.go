package engine

import (
	"bufio"
	"fmt"
	"io"

	"github.com/arcrest/arcrest/internal/model"
)

// renderScript writes the selected entries as a SQL script. Script mode has
// no per-object failures, every selected entry is rendered.
func (e *Engine) renderScript(w io.Writer, arch model.Archive, entries []model.TOCEntry, report *RestoreReport) error {
	buf := bufio.NewWriter(w)

	fmt.Fprintf(buf, "--\n-- Restore script generated by arcrest\n-- Dump: %s (%s)\n--\n",
		arch.DumpID, arch.DumpedAt.Format("2006-01-02 15:04:05 MST"))

	if e.opts.Role != "" {
		fmt.Fprintf(buf, "-- Run as role: %s\n", e.opts.Role)
	}
	if e.opts.Superuser != "" {
		fmt.Fprintf(buf, "-- Superuser for trigger handling: %s\n", e.opts.Superuser)
	}
	if e.opts.Create {
		fmt.Fprintf(buf, "-- Create the target database file before applying this script.\n")
	}
	fmt.Fprintln(buf)

	if e.opts.DisableTriggers {
		fmt.Fprintf(buf, "PRAGMA defer_foreign_keys = ON;\n\n")
	}

	if e.opts.Clean {
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].DropSQL == "" {
				continue
			}
			fmt.Fprintf(buf, "%s\n", entries[i].DropSQL)
		}
		fmt.Fprintln(buf)
	}

	for _, entry := range entries {
		owner := entry.Owner
		if e.opts.NoOwner || owner == "" {
			owner = "-"
		}
		fmt.Fprintf(buf, "--\n-- Name: %s; Type: %s; Schema: %s; Owner: %s\n--\n",
			entry.Tag, entry.Kind, entryNamespace(entry), owner)

		if entry.CreateSQL != "" {
			fmt.Fprintf(buf, "%s\n", entry.CreateSQL)
		}
		for _, stmt := range entry.DataSQL {
			fmt.Fprintf(buf, "%s\n", stmt)
		}
		fmt.Fprintln(buf)

		report.ObjectsRestored++
	}

	if e.opts.DisableTriggers {
		fmt.Fprintf(buf, "PRAGMA defer_foreign_keys = OFF;\n")
	}

	if err := buf.Flush(); err != nil {
		return e.inv.Fatalf(moduleName, "could not write restore script: %s\n", err)
	}

	return nil
}
