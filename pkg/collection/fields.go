package collection

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	ratingStep   = 51
	maxRating    = 5
	defaultMeter = "4/4"
)

var errEmpty = errors.New("empty value")

// NormalizeRating converts the 0-255 value Rekordbox stores into 0-5 stars.
func NormalizeRating(raw int) int {
	stars := int(math.Round(float64(raw) / ratingStep))
	return min(max(stars, 0), maxRating)
}

// fieldReader coerces the attributes of a single track. A value that fails
// coercion is dropped and counted; the rest of the track is unaffected.
type fieldReader struct {
	logger  zerolog.Logger
	dropped int
}

func (fr *fieldReader) track(raw *rawTrack) Track {
	t := Track{
		TrackID:  raw.TrackID,
		Name:     raw.Name,
		Artist:   raw.Artist,
		Composer: raw.Composer,
		Album:    raw.Album,
		Grouping: raw.Grouping,
		Genre:    raw.Genre,
		Kind:     raw.Kind,
		Remixer:  raw.Remixer,
		Label:    raw.Label,
		Comments: raw.Comments,
		Tonality: raw.Tonality,
		Location: raw.Location,

		Size:        fr.optInt64("Size", raw.Size),
		TotalTime:   fr.optInt("TotalTime", raw.TotalTime),
		BitRate:     fr.optInt("BitRate", raw.BitRate),
		SampleRate:  fr.optInt("SampleRate", raw.SampleRate),
		DiscNumber:  fr.optInt("DiscNumber", raw.DiscNumber),
		TrackNumber: fr.optInt("TrackNumber", raw.TrackNumber),
		Year:        fr.optInt("Year", raw.Year),
		AverageBPM:  fr.optFloat("AverageBpm", raw.AverageBpm),
		DateAdded:   fr.optDate("DateAdded", raw.DateAdded),

		PlayCount: fr.intOr("PlayCount", raw.PlayCount, 0),
		Rating:    NormalizeRating(fr.intOr("Rating", raw.Rating, 0)),

		Tempos:        make([]Tempo, 0, len(raw.Tempos)),
		PositionMarks: make([]PositionMark, 0, len(raw.Marks)),
	}

	for _, rt := range raw.Tempos {
		meter := rt.Metro
		if meter == "" {
			meter = defaultMeter
		}
		t.Tempos = append(t.Tempos, Tempo{
			Start: fr.floatOr("TEMPO.Inizio", rt.Inizio, 0),
			BPM:   fr.floatOr("TEMPO.Bpm", rt.Bpm, 0),
			Meter: meter,
			Beat:  fr.intOr("TEMPO.Battito", rt.Battito, 0),
		})
	}

	for _, rm := range raw.Marks {
		t.PositionMarks = append(t.PositionMarks, PositionMark{
			Name:  rm.Name,
			Type:  fr.intOr("POSITION_MARK.Type", rm.Type, MarkCue),
			Start: fr.floatOr("POSITION_MARK.Start", rm.Start, 0),
			End:   fr.optFloat("POSITION_MARK.End", rm.End),
			Num:   fr.intOr("POSITION_MARK.Num", rm.Num, -1),
			Color: fr.color(rm),
		})
	}

	return t
}

func (fr *fieldReader) drop(attr, value string, err error) {
	fr.dropped++
	fr.logger.Debug().Err(err).Str("attribute", attr).Str("value", value).Msg("dropping malformed attribute")
}

func (fr *fieldReader) optInt(attr, value string) *int {
	n, err := parseInt(value)
	if err != nil {
		if !errors.Is(err, errEmpty) {
			fr.drop(attr, value, err)
		}
		return nil
	}
	return &n
}

func (fr *fieldReader) optInt64(attr, value string) *int64 {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fr.drop(attr, value, err)
		return nil
	}
	return &n
}

func (fr *fieldReader) optFloat(attr, value string) *float64 {
	f, err := parseFloat(value)
	if err != nil {
		if !errors.Is(err, errEmpty) {
			fr.drop(attr, value, err)
		}
		return nil
	}
	return &f
}

func (fr *fieldReader) optDate(attr, value string) *Date {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		fr.drop(attr, value, err)
		return nil
	}
	return &Date{t}
}

func (fr *fieldReader) intOr(attr, value string, fallback int) int {
	if n := fr.optInt(attr, value); n != nil {
		return *n
	}
	return fallback
}

func (fr *fieldReader) floatOr(attr, value string, fallback float64) float64 {
	if f := fr.optFloat(attr, value); f != nil {
		return *f
	}
	return fallback
}

// color returns nil unless all three channels are present and numeric.
func (fr *fieldReader) color(rm rawMark) *Color {
	if rm.Red == "" && rm.Green == "" && rm.Blue == "" {
		return nil
	}
	r, errR := parseInt(rm.Red)
	g, errG := parseInt(rm.Green)
	b, errB := parseInt(rm.Blue)
	if err := errors.Join(errR, errG, errB); err != nil {
		fr.drop("POSITION_MARK.Color", rm.Red+","+rm.Green+","+rm.Blue, err)
		return nil
	}
	return &Color{Red: r, Green: g, Blue: b}
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmpty
	}
	return strconv.Atoi(s)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmpty
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("value is not a finite number")
	}
	return f, nil
}
