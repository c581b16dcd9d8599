package archive

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arcrest/arcrest/internal/model"
)

// ParseTOCList reads a TOC list file (-L): one dump ID per line, optionally
// followed by a description, with ";" starting a comment. The returned order
// is the order the lines appear in.
func ParseTOCList(r io.Reader) ([]int, error) {
	var ids []int
	seen := map[int]struct{}{}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, ";") {
			continue
		}

		field := strings.Fields(text)[0]
		field = strings.TrimSuffix(field, ";")
		id, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid dump id %q: %w", line, field, model.ErrNotValid)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("line %d: duplicated dump id %d: %w", line, id, model.ErrNotValid)
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read toc list: %w", err)
	}

	return ids, nil
}

// ApplyTOCList selects and reorders the archive entries to match the list.
// IDs missing from the archive are an error; entries missing from the list
// are dropped.
func ApplyTOCList(a *model.Archive, ids []int) error {
	entries := make([]model.TOCEntry, 0, len(ids))
	for _, id := range ids {
		e, err := a.Entry(id)
		if err != nil {
			return fmt.Errorf("toc list references unknown entry: %w", err)
		}
		entries = append(entries, *e)
	}

	a.Entries = entries
	return nil
}
