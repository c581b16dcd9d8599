package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/arcrest/arcrest/internal/model"
)

// customMagic identifies a custom format archive file.
const customMagic = "ARCREST1"

type customHeader struct {
	DumpID        string    `msgpack:"dump_id"`
	FormatVersion int       `msgpack:"format_version"`
	CompatVersion string    `msgpack:"compat_version"`
	DumpedAt      time.Time `msgpack:"dumped_at"`
	Entries       int       `msgpack:"entries"`
}

type customEntry struct {
	DumpID    int      `msgpack:"dump_id"`
	Tag       string   `msgpack:"tag"`
	Namespace string   `msgpack:"namespace"`
	Owner     string   `msgpack:"owner"`
	Kind      string   `msgpack:"kind"`
	Section   string   `msgpack:"section"`
	CreateSQL string   `msgpack:"create_sql"`
	DropSQL   string   `msgpack:"drop_sql"`
	DataSQL   []string `msgpack:"data_sql"`
	DependsOn []int    `msgpack:"depends_on"`
}

// WriteCustom writes the archive as a single custom format file: the magic
// followed by a msgpack stream of the header and one frame per TOC entry.
func WriteCustom(path string, a model.Archive) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid archive: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create archive file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte(customMagic)); err != nil {
		return fmt.Errorf("could not write archive magic: %w", err)
	}

	enc := msgpack.NewEncoder(f)

	header := customHeader{
		DumpID:        a.DumpID,
		FormatVersion: FormatVersion,
		CompatVersion: a.CompatVersion,
		DumpedAt:      a.DumpedAt,
		Entries:       len(a.Entries),
	}
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("could not encode archive header: %w", err)
	}

	for _, e := range a.Entries {
		frame := customEntry{
			DumpID:    e.DumpID,
			Tag:       e.Tag,
			Namespace: e.Namespace,
			Owner:     e.Owner,
			Kind:      string(e.Kind),
			Section:   e.Section.String(),
			CreateSQL: e.CreateSQL,
			DropSQL:   e.DropSQL,
			DataSQL:   e.DataSQL,
			DependsOn: e.DependsOn,
		}
		if err := enc.Encode(frame); err != nil {
			return fmt.Errorf("could not encode entry %d: %w", e.DumpID, err)
		}
	}

	return nil
}

// ReadCustom loads a custom format archive file.
func ReadCustom(path string) (*model.Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("archive %q: %w", path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not open archive: %w", err)
	}
	defer f.Close()

	magic := make([]byte, len(customMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, fmt.Errorf("could not read archive magic: %w", err)
	}
	if !bytes.Equal(magic, []byte(customMagic)) {
		return nil, fmt.Errorf("%q is not a custom format archive: %w", path, model.ErrNotValid)
	}

	dec := msgpack.NewDecoder(f)

	var header customHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("could not decode archive header: %w", err)
	}
	if header.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported archive format version %d: %w", header.FormatVersion, model.ErrNotValid)
	}

	arch := &model.Archive{
		DumpID:        header.DumpID,
		FormatVersion: header.FormatVersion,
		CompatVersion: header.CompatVersion,
		DumpedAt:      header.DumpedAt,
		Entries:       make([]model.TOCEntry, 0, header.Entries),
	}

	for i := 0; i < header.Entries; i++ {
		var frame customEntry
		if err := dec.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("archive truncated at entry %d of %d: %w", i+1, header.Entries, model.ErrNotValid)
			}
			return nil, fmt.Errorf("could not decode entry %d: %w", i+1, err)
		}

		section, err := sectionFromString(frame.Section)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", frame.DumpID, err)
		}

		arch.Entries = append(arch.Entries, model.TOCEntry{
			DumpID:    frame.DumpID,
			Tag:       frame.Tag,
			Namespace: frame.Namespace,
			Owner:     frame.Owner,
			Kind:      model.EntryKind(frame.Kind),
			Section:   section,
			CreateSQL: frame.CreateSQL,
			DropSQL:   frame.DropSQL,
			DataSQL:   frame.DataSQL,
			DependsOn: frame.DependsOn,
		})
	}

	return arch, nil
}

func sectionFromString(s string) (model.Section, error) {
	if s == "" {
		return model.SectionNone, nil
	}
	return model.ParseSection(s)
}
