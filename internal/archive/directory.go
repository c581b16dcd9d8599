package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arcrest/arcrest/internal/model"
)

// tocFileName is the TOC file inside a directory format archive.
const tocFileName = "toc.yaml"

type directoryTOC struct {
	DumpID        string         `yaml:"dump_id"`
	FormatVersion int            `yaml:"format_version"`
	CompatVersion string         `yaml:"compat_version,omitempty"`
	DumpedAt      time.Time      `yaml:"dumped_at"`
	Entries       []directoryEnt `yaml:"entries"`
}

type directoryEnt struct {
	DumpID    int    `yaml:"dump_id"`
	Tag       string `yaml:"tag"`
	Namespace string `yaml:"namespace,omitempty"`
	Owner     string `yaml:"owner,omitempty"`
	Kind      string `yaml:"kind"`
	Section   string `yaml:"section,omitempty"`
	CreateSQL string `yaml:"create_sql,omitempty"`
	DropSQL   string `yaml:"drop_sql,omitempty"`
	// DataFile points at the per-entry data file, one SQL statement per line.
	DataFile  string `yaml:"data_file,omitempty"`
	DependsOn []int  `yaml:"depends_on,omitempty"`
}

// WriteDirectory writes the archive in the directory format: a toc.yaml plus
// one "<dumpid>.sql" file per data-carrying entry.
func WriteDirectory(dir string, a model.Archive) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid archive: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create archive directory: %w", err)
	}

	toc := directoryTOC{
		DumpID:        a.DumpID,
		FormatVersion: FormatVersion,
		CompatVersion: a.CompatVersion,
		DumpedAt:      a.DumpedAt,
		Entries:       make([]directoryEnt, 0, len(a.Entries)),
	}

	for _, e := range a.Entries {
		ent := directoryEnt{
			DumpID:    e.DumpID,
			Tag:       e.Tag,
			Namespace: e.Namespace,
			Owner:     e.Owner,
			Kind:      string(e.Kind),
			Section:   e.Section.String(),
			CreateSQL: e.CreateSQL,
			DropSQL:   e.DropSQL,
			DependsOn: e.DependsOn,
		}

		if len(e.DataSQL) > 0 {
			ent.DataFile = fmt.Sprintf("%d.sql", e.DumpID)
			content := strings.Join(e.DataSQL, "\n") + "\n"
			if err := os.WriteFile(filepath.Join(dir, ent.DataFile), []byte(content), 0o644); err != nil {
				return fmt.Errorf("could not write data file for entry %d: %w", e.DumpID, err)
			}
		}

		toc.Entries = append(toc.Entries, ent)
	}

	data, err := yaml.Marshal(toc)
	if err != nil {
		return fmt.Errorf("could not marshal toc: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, tocFileName), data, 0o644); err != nil {
		return fmt.Errorf("could not write toc file: %w", err)
	}

	return nil
}

// ReadDirectory loads a directory format archive.
func ReadDirectory(dir string) (*model.Archive, error) {
	data, err := os.ReadFile(filepath.Join(dir, tocFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("archive toc %q: %w", filepath.Join(dir, tocFileName), model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not read toc file: %w", err)
	}

	var toc directoryTOC
	if err := yaml.Unmarshal(data, &toc); err != nil {
		return nil, fmt.Errorf("could not unmarshal toc: %w", err)
	}
	if toc.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported archive format version %d: %w", toc.FormatVersion, model.ErrNotValid)
	}

	arch := &model.Archive{
		DumpID:        toc.DumpID,
		FormatVersion: toc.FormatVersion,
		CompatVersion: toc.CompatVersion,
		DumpedAt:      toc.DumpedAt,
		Entries:       make([]model.TOCEntry, 0, len(toc.Entries)),
	}

	for _, ent := range toc.Entries {
		section, err := sectionFromString(ent.Section)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", ent.DumpID, err)
		}

		entry := model.TOCEntry{
			DumpID:    ent.DumpID,
			Tag:       ent.Tag,
			Namespace: ent.Namespace,
			Owner:     ent.Owner,
			Kind:      model.EntryKind(ent.Kind),
			Section:   section,
			CreateSQL: ent.CreateSQL,
			DropSQL:   ent.DropSQL,
			DependsOn: ent.DependsOn,
		}

		if ent.DataFile != "" {
			raw, err := os.ReadFile(filepath.Join(dir, ent.DataFile))
			if err != nil {
				return nil, fmt.Errorf("could not read data file for entry %d: %w", ent.DumpID, err)
			}
			for _, line := range strings.Split(string(raw), "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				entry.DataSQL = append(entry.DataSQL, line)
			}
		}

		arch.Entries = append(arch.Entries, entry)
	}

	return arch, nil
}
