// Package audit checks collection entries against the audio files they point to.
package audit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
	"github.com/sdelicata/rekordbox-analyzer/pkg/tags"
	"github.com/sdelicata/rekordbox-analyzer/pkg/worker"
)

// Kind classifies a finding.
type Kind string

const (
	MissingLocation  Kind = "missing_location"
	BadLocation      Kind = "bad_location"
	MissingFile      Kind = "missing_file"
	NotAudio         Kind = "not_audio"
	UnreadableTags   Kind = "unreadable_tags"
	TagMismatch      Kind = "tag_mismatch"
	DurationMismatch Kind = "duration_mismatch"
)

// DurationTolerance is the largest accepted gap between TotalTime and the file length.
const DurationTolerance = 2 * time.Second

// Finding is one problem detected for one track.
type Finding struct {
	Index      int    `json:"index"`
	TrackID    string `json:"track_id"`
	Name       string `json:"name"`
	Kind       Kind   `json:"kind"`
	Path       string `json:"path,omitempty"`
	Field      string `json:"field,omitempty"`
	Collection string `json:"collection,omitempty"`
	File       string `json:"file,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Auditor runs the per-track checks on a bounded worker pool.
type Auditor struct {
	logger   zerolog.Logger
	workers  int
	readTags func(path string) (tags.FileTags, error)
}

// New returns an Auditor reading tags with taglib on the given number of workers.
func New(logger zerolog.Logger, workers int) *Auditor {
	return &Auditor{
		logger:   logger,
		workers:  workers,
		readTags: tags.ReadFile,
	}
}

// Run checks every track and returns the findings in collection order.
// It returns ctx.Err() if the run was cancelled before all tracks were checked.
func (a *Auditor) Run(ctx context.Context, tracks []collection.Track, progress worker.ProgressFunc) ([]Finding, error) {
	indexes := make([]int, len(tracks))
	for i := range indexes {
		indexes[i] = i
	}

	results := worker.Run(ctx, indexes, a.workers,
		func(_ context.Context, i int) ([]Finding, error) {
			return a.check(i, &tracks[i]), nil
		},
		progress,
	)

	findings := make([]Finding, 0)
	for i, r := range results {
		if r.Err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return findings, ctxErr
			}
			a.logger.Warn().Err(r.Err).Int("index", i).Msg("auditing track")
			findings = append(findings, newFinding(i, &tracks[i], UnreadableTags).withDetail(r.Err))
			continue
		}
		findings = append(findings, r.Value...)
	}

	a.logger.Debug().
		Int("tracks", len(tracks)).
		Int("findings", len(findings)).
		Msg("audit complete")
	return findings, nil
}

// Counts tallies findings per kind.
func Counts(findings []Finding) map[Kind]int {
	counts := make(map[Kind]int)
	for _, f := range findings {
		counts[f.Kind]++
	}
	return counts
}

func (a *Auditor) check(i int, t *collection.Track) []Finding {
	path, err := t.FilePath()
	if err != nil {
		if errors.Is(err, collection.ErrNoLocation) {
			return []Finding{newFinding(i, t, MissingLocation)}
		}
		return []Finding{newFinding(i, t, BadLocation).withDetail(err)}
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return []Finding{newFinding(i, t, MissingFile).at(path)}
	case err != nil:
		return []Finding{newFinding(i, t, MissingFile).at(path).withDetail(err)}
	case info.IsDir() || !IsAudioFile(path):
		return []Finding{newFinding(i, t, NotAudio).at(path)}
	}

	ft, err := a.readTags(path)
	if err != nil {
		a.logger.Debug().Err(err).Str("path", path).Msg("reading tags")
		return []Finding{newFinding(i, t, UnreadableTags).at(path).withDetail(err)}
	}

	var findings []Finding
	for _, f := range []struct {
		name, want, got string
	}{
		{"title", t.Name, ft.Title},
		{"artist", t.Artist, ft.Artist},
		{"album", t.Album, ft.Album},
		{"genre", t.Genre, ft.Genre},
	} {
		if !sameText(f.want, f.got) {
			m := newFinding(i, t, TagMismatch).at(path)
			m.Field, m.Collection, m.File = f.name, f.want, f.got
			findings = append(findings, m)
		}
	}

	if t.TotalTime != nil && ft.Duration > 0 {
		want := time.Duration(*t.TotalTime) * time.Second
		if gap := (ft.Duration - want).Abs(); gap > DurationTolerance {
			m := newFinding(i, t, DurationMismatch).at(path)
			m.Field = "total_time"
			m.Collection = want.String()
			m.File = ft.Duration.Round(time.Second).String()
			findings = append(findings, m)
		}
	}

	return findings
}

// sameText compares tag values after NFC normalization and case folding.
// An empty value on either side is not a mismatch.
func sameText(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return true
	}
	fold := cases.Fold()
	return fold.String(norm.NFC.String(a)) == fold.String(norm.NFC.String(b))
}

func newFinding(i int, t *collection.Track, kind Kind) Finding {
	return Finding{Index: i, TrackID: t.TrackID, Name: t.Name, Kind: kind}
}

func (f Finding) at(path string) Finding {
	f.Path = path
	return f
}

func (f Finding) withDetail(err error) Finding {
	f.Detail = err.Error()
	return f
}

// String renders a finding as a single line for terminal output.
func (f Finding) String() string {
	s := fmt.Sprintf("#%d %s %q", f.Index, f.Kind, f.Name)
	if f.Field != "" {
		s += fmt.Sprintf(" %s: collection=%q file=%q", f.Field, f.Collection, f.File)
	}
	if f.Path != "" {
		s += " " + f.Path
	}
	if f.Detail != "" {
		s += " (" + f.Detail + ")"
	}
	return s
}
