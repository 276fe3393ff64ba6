package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
)

const maxLineBytes = 4 << 20

// WriteNDJSON writes one JSON object per track, each terminated by a newline.
func WriteNDJSON(w io.Writer, tracks []collection.Track) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range tracks {
		if err := enc.Encode(&tracks[i]); err != nil {
			return fmt.Errorf("encoding track %d: %w", i, err)
		}
	}
	return nil
}

// ReadNDJSON decodes an NDJSON export back into tracks. Blank lines are skipped.
func ReadNDJSON(r io.Reader) ([]collection.Track, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	tracks := make([]collection.Track, 0)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var t collection.Track
		if err := json.Unmarshal(b, &t); err != nil {
			return nil, fmt.Errorf("decoding line %d: %w", line, err)
		}
		tracks = append(tracks, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading NDJSON: %w", err)
	}
	return tracks, nil
}
