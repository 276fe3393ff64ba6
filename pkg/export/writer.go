package export

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
)

// Encode writes tracks to w in the given format.
func Encode(w io.Writer, format Format, tracks []collection.Track) error {
	switch format {
	case CSV:
		return WriteCSV(w, tracks)
	case NDJSON:
		return WriteNDJSON(w, tracks)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// Write serializes tracks in the given format and writes them to path.
func Write(path string, format Format, tracks []collection.Track) error {
	var buf bytes.Buffer
	if err := Encode(&buf, format, tracks); err != nil {
		return fmt.Errorf("encoding %s export: %w", format, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	return nil
}
