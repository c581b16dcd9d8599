package engine

import (
	"fmt"
	"io"

	"github.com/arcrest/arcrest/internal/model"
)

// printTOCSummary writes the archive table of contents in the list format
// that TOC list files (-L) accept back: comment lines start with ";" and
// every entry line starts with its dump ID.
func printTOCSummary(w io.Writer, arch model.Archive) error {
	header := fmt.Sprintf(
		";\n; Archive %s\n; Created at: %s\n; Format version: %d\n; Compat: %s\n;\n; Selected TOC Entries:\n;\n",
		arch.DumpID, arch.DumpedAt.Format("2006-01-02 15:04:05 MST"), arch.FormatVersion, arch.CompatVersion,
	)
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	for _, e := range arch.Entries {
		line := fmt.Sprintf("%d; %s %s %s", e.DumpID, e.Kind, entryNamespace(e), e.Tag)
		if e.Owner != "" {
			line += " " + e.Owner
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}

	return nil
}

func entryNamespace(e model.TOCEntry) string {
	if e.Namespace == "" {
		return "-"
	}
	return e.Namespace
}
