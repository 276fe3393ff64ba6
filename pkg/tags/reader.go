// Package tags reads embedded metadata from audio files.
package tags

import (
	"fmt"
	"strconv"
	"time"

	"go.senan.xyz/taglib"
)

// FileTags holds the tag values the audit compares against a collection entry.
type FileTags struct {
	Title    string
	Artist   string
	Album    string
	Genre    string
	Year     int
	Duration time.Duration
}

// ReadFile extracts tags and stream length from the file at path.
func ReadFile(path string) (FileTags, error) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return FileTags{}, fmt.Errorf("reading tags: %w", err)
	}
	props, err := taglib.ReadProperties(path)
	if err != nil {
		return FileTags{}, fmt.Errorf("reading audio properties: %w", err)
	}

	return FileTags{
		Title:    firstTag(raw, "TITLE"),
		Artist:   firstTag(raw, "ARTIST"),
		Album:    firstTag(raw, "ALBUM"),
		Genre:    firstTag(raw, "GENRE"),
		Year:     parseYear(firstTag(raw, "DATE")),
		Duration: props.Length,
	}, nil
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// parseYear extracts a 4-digit year from a string that may be a full ISO date.
func parseYear(s string) int {
	if len(s) >= 4 {
		if y, err := strconv.Atoi(s[:4]); err == nil {
			return y
		}
	}
	return 0
}
