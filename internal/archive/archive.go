// Package archive reads and writes dump archives in the supported formats:
// the single-file custom format and the directory format.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/arcrest/arcrest/internal/model"
)

// FormatVersion is the archive layout version this package produces and
// understands.
const FormatVersion = 1

// Open loads an archive from disk. When format is unknown it is sniffed: a
// directory is the directory format, a file starting with the custom magic is
// the custom format.
func Open(path string, format model.ArchiveFormat) (*model.Archive, error) {
	if path == "" {
		return nil, fmt.Errorf("archive path is required: %w", model.ErrNotValid)
	}

	if format == model.ArchiveFormatUnknown {
		var err error
		format, err = Sniff(path)
		if err != nil {
			return nil, err
		}
	}

	var (
		arch *model.Archive
		err  error
	)
	switch format {
	case model.ArchiveFormatCustom:
		arch, err = ReadCustom(path)
	case model.ArchiveFormatDirectory:
		arch, err = ReadDirectory(path)
	default:
		return nil, fmt.Errorf("unsupported archive format %q: %w", format, model.ErrNotValid)
	}
	if err != nil {
		return nil, err
	}

	normalize(arch)

	if err := arch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid archive: %w", err)
	}

	return arch, nil
}

// Sniff identifies the archive format from the filesystem.
func Sniff(path string) (model.ArchiveFormat, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.ArchiveFormatUnknown, fmt.Errorf("archive %q: %w", path, model.ErrNotFound)
		}
		return model.ArchiveFormatUnknown, fmt.Errorf("could not stat archive: %w", err)
	}

	if info.IsDir() {
		return model.ArchiveFormatDirectory, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return model.ArchiveFormatUnknown, fmt.Errorf("could not open archive: %w", err)
	}
	defer f.Close()

	magic := make([]byte, len(customMagic))
	if _, err := io.ReadFull(f, magic); err != nil || !bytes.Equal(magic, []byte(customMagic)) {
		return model.ArchiveFormatUnknown, fmt.Errorf("could not identify archive format of %q: %w", path, model.ErrNotValid)
	}

	return model.ArchiveFormatCustom, nil
}

// normalize fills in per-kind default sections for entries that don't carry
// an explicit one.
func normalize(a *model.Archive) {
	for i := range a.Entries {
		if a.Entries[i].Section == model.SectionNone {
			a.Entries[i].Section = a.Entries[i].Kind.DefaultSection()
		}
	}
}
