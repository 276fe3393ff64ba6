package collection

import (
	"fmt"
	"time"
)

// Collection is the parsed content of a Rekordbox XML export.
type Collection struct {
	Metadata Metadata
	Tracks   []Track
}

// Metadata describes the export itself rather than any single track.
type Metadata struct {
	TrackCount      int    `json:"track_count"`
	DeclaredEntries *int   `json:"declared_entries"`
	ProductName     string `json:"product_name"`
	ProductVersion  string `json:"product_version"`
	ProductCompany  string `json:"product_company"`
	FormatVersion   string `json:"format_version"`
	MalformedFields int    `json:"malformed_fields"`
}

// Track is one TRACK element of the collection.
// Pointer fields are nil when the attribute was absent or could not be coerced.
type Track struct {
	TrackID  string `json:"track_id"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	Composer string `json:"composer"`
	Album    string `json:"album"`
	Grouping string `json:"grouping"`
	Genre    string `json:"genre"`
	Kind     string `json:"kind"`
	Remixer  string `json:"remixer"`
	Label    string `json:"label"`
	Comments string `json:"comments"`

	Size        *int64 `json:"size"`
	TotalTime   *int   `json:"total_time"`
	BitRate     *int   `json:"bit_rate"`
	SampleRate  *int   `json:"sample_rate"`
	DiscNumber  *int   `json:"disc_number"`
	TrackNumber *int   `json:"track_number"`

	AverageBPM *float64 `json:"average_bpm"`
	Tonality   string   `json:"tonality"`
	Year       *int     `json:"year"`

	PlayCount int    `json:"play_count"`
	Rating    int    `json:"rating"`
	DateAdded *Date  `json:"date_added"`
	Location  string `json:"location"`

	Tempos        []Tempo        `json:"tempos"`
	PositionMarks []PositionMark `json:"position_marks"`
}

// Tempo is a beat grid anchor: from Start onwards the track plays at BPM.
type Tempo struct {
	Start float64 `json:"start"`
	BPM   float64 `json:"bpm"`
	Meter string  `json:"meter"`
	Beat  int     `json:"beat"`
}

// Mark types as stored in the POSITION_MARK Type attribute.
const (
	MarkCue     = 0
	MarkFadeIn  = 1
	MarkFadeOut = 2
	MarkLoad    = 3
	MarkLoop    = 4
)

// PositionMark is a memory cue, hot cue or loop.
// Num is -1 for memory cues and the pad index for hot cues.
type PositionMark struct {
	Name  string   `json:"name"`
	Type  int      `json:"type"`
	Start float64  `json:"start"`
	End   *float64 `json:"end"`
	Num   int      `json:"num"`
	Color *Color   `json:"color"`
}

// Color is the RGB colour assigned to a hot cue.
type Color struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
}

// Hex returns the colour as a CSS hex triplet.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", clampByte(c.Red), clampByte(c.Green), clampByte(c.Blue))
}

func clampByte(v int) int {
	return min(max(v, 0), 255)
}

// DateLayout is the layout Rekordbox uses for DateAdded.
const DateLayout = "2006-01-02"

// Date is a calendar day that always serializes as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a JSON string, got %s", s)
	}
	t, err := time.Parse(DateLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}
	d.Time = t
	return nil
}
