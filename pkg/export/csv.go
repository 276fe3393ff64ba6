package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
)

type column struct {
	name  string
	value func(t *collection.Track) (string, error)
}

func text(get func(t *collection.Track) string) func(t *collection.Track) (string, error) {
	return func(t *collection.Track) (string, error) { return get(t), nil }
}

// Columns follow the NDJSON key order so both exports line up.
var columns = []column{
	{"track_id", text(func(t *collection.Track) string { return t.TrackID })},
	{"name", text(func(t *collection.Track) string { return t.Name })},
	{"artist", text(func(t *collection.Track) string { return t.Artist })},
	{"composer", text(func(t *collection.Track) string { return t.Composer })},
	{"album", text(func(t *collection.Track) string { return t.Album })},
	{"grouping", text(func(t *collection.Track) string { return t.Grouping })},
	{"genre", text(func(t *collection.Track) string { return t.Genre })},
	{"kind", text(func(t *collection.Track) string { return t.Kind })},
	{"remixer", text(func(t *collection.Track) string { return t.Remixer })},
	{"label", text(func(t *collection.Track) string { return t.Label })},
	{"comments", text(func(t *collection.Track) string { return t.Comments })},
	{"size", text(func(t *collection.Track) string { return optInt64(t.Size) })},
	{"total_time", text(func(t *collection.Track) string { return optInt(t.TotalTime) })},
	{"bit_rate", text(func(t *collection.Track) string { return optInt(t.BitRate) })},
	{"sample_rate", text(func(t *collection.Track) string { return optInt(t.SampleRate) })},
	{"disc_number", text(func(t *collection.Track) string { return optInt(t.DiscNumber) })},
	{"track_number", text(func(t *collection.Track) string { return optInt(t.TrackNumber) })},
	{"average_bpm", text(func(t *collection.Track) string { return optFloat(t.AverageBPM) })},
	{"tonality", text(func(t *collection.Track) string { return t.Tonality })},
	{"year", text(func(t *collection.Track) string { return optInt(t.Year) })},
	{"play_count", text(func(t *collection.Track) string { return strconv.Itoa(t.PlayCount) })},
	{"rating", text(func(t *collection.Track) string { return strconv.Itoa(t.Rating) })},
	{"date_added", text(func(t *collection.Track) string {
		if t.DateAdded == nil {
			return ""
		}
		return t.DateAdded.String()
	})},
	{"location", text(func(t *collection.Track) string { return t.Location })},
	{"tempos", func(t *collection.Track) (string, error) { return marshalCell(t.Tempos) }},
	{"position_marks", func(t *collection.Track) (string, error) { return marshalCell(t.PositionMarks) }},
}

// Header returns the CSV column names.
func Header() []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}
	return names
}

// WriteCSV writes a header row followed by one row per track.
// Missing values are left blank; marker lists are embedded as JSON arrays.
func WriteCSV(w io.Writer, tracks []collection.Track) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	row := make([]string, len(columns))
	for i := range tracks {
		for j, c := range columns {
			v, err := c.value(&tracks[i])
			if err != nil {
				return fmt.Errorf("encoding %s of track %d: %w", c.name, i, err)
			}
			row[j] = v
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

func marshalCell(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func optInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func optInt64(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
