// Package analysis computes the descriptive statistics shown on the dashboard.
// Every ranking is stable: entries with equal values keep the order in which
// they first appear in the collection.
package analysis

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
)

// Overview holds the headline numbers of a collection.
type Overview struct {
	TotalTracks   int     `json:"total_tracks"`
	TotalSeconds  int64   `json:"total_seconds"`
	TotalHours    float64 `json:"total_hours"`
	UniqueArtists int     `json:"unique_artists"`
	UniqueGenres  int     `json:"unique_genres"`
	TotalPlays    int     `json:"total_plays"`
	TotalBytes    int64   `json:"total_bytes"`
}

// Count is one labelled value of a ranking.
type Count struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// TrackSummary is the subset of a track shown in rankings.
type TrackSummary struct {
	Name       string   `json:"name"`
	Artist     string   `json:"artist"`
	Genre      string   `json:"genre"`
	PlayCount  int      `json:"play_count"`
	AverageBPM *float64 `json:"average_bpm"`
}

// Summarize computes the collection overview. Empty artists and genres are not counted.
func Summarize(tracks []collection.Track) Overview {
	seconds := lo.SumBy(tracks, func(t collection.Track) int64 {
		if t.TotalTime == nil {
			return 0
		}
		return int64(*t.TotalTime)
	})

	return Overview{
		TotalTracks:   len(tracks),
		TotalSeconds:  seconds,
		TotalHours:    float64(seconds) / 3600,
		UniqueArtists: countDistinct(tracks, func(t collection.Track) string { return t.Artist }),
		UniqueGenres:  countDistinct(tracks, func(t collection.Track) string { return t.Genre }),
		TotalPlays:    lo.SumBy(tracks, func(t collection.Track) int { return t.PlayCount }),
		TotalBytes: lo.SumBy(tracks, func(t collection.Track) int64 {
			if t.Size == nil {
				return 0
			}
			return *t.Size
		}),
	}
}

func countDistinct(tracks []collection.Track, field func(collection.Track) string) int {
	values := lo.Map(tracks, func(t collection.Track, _ int) string { return field(t) })
	return len(lo.Uniq(lo.Compact(values)))
}

// TopTracks returns the n most played tracks, most played first.
func TopTracks(tracks []collection.Track, n int) []TrackSummary {
	sorted := slices.Clone(tracks)
	slices.SortStableFunc(sorted, func(a, b collection.Track) int {
		return cmp.Compare(b.PlayCount, a.PlayCount)
	})
	return lo.Map(limit(sorted, n), func(t collection.Track, _ int) TrackSummary {
		return TrackSummary{
			Name:       t.Name,
			Artist:     t.Artist,
			Genre:      t.Genre,
			PlayCount:  t.PlayCount,
			AverageBPM: t.AverageBPM,
		}
	})
}

// GenreCounts counts tracks per genre string, as tagged.
func GenreCounts(tracks []collection.Track, n int) []Count {
	return rank(tracks, n, func(t collection.Track) []string { return []string{t.Genre} }, one)
}

// SplitGenreCounts counts tracks per individual genre, splitting
// multi-genre tags such as "House, Techno" on commas.
func SplitGenreCounts(tracks []collection.Track, n int) []Count {
	return rank(tracks, n, func(t collection.Track) []string {
		return lo.Map(strings.Split(t.Genre, ","), func(g string, _ int) string {
			return strings.TrimSpace(g)
		})
	}, one)
}

// ArtistPlays sums play counts per artist.
func ArtistPlays(tracks []collection.Track, n int) []Count {
	return rank(tracks, n, artist, func(t collection.Track) int { return t.PlayCount })
}

// ArtistCounts counts tracks per artist.
func ArtistCounts(tracks []collection.Track, n int) []Count {
	return rank(tracks, n, artist, one)
}

// KeyCounts counts tracks per musical key.
func KeyCounts(tracks []collection.Track, n int) []Count {
	return rank(tracks, n, func(t collection.Track) []string { return []string{t.Tonality} }, one)
}

// Ratings returns the number of tracks for each star rating from 0 to 5.
func Ratings(tracks []collection.Track) []Count {
	buckets := make([]Count, 6)
	for i := range buckets {
		buckets[i].Label = strconv.Itoa(i)
	}
	for _, t := range tracks {
		buckets[min(max(t.Rating, 0), len(buckets)-1)].Value++
	}
	return buckets
}

func artist(t collection.Track) []string { return []string{t.Artist} }

func one(collection.Track) int { return 1 }

// rank groups tracks by the labels keys returns, sums weight per label and
// orders labels by descending total. Empty labels are skipped.
func rank(tracks []collection.Track, n int, keys func(collection.Track) []string, weight func(collection.Track) int) []Count {
	index := make(map[string]int)
	counts := make([]Count, 0)

	for _, t := range tracks {
		w := weight(t)
		for _, k := range keys(t) {
			if k == "" {
				continue
			}
			i, ok := index[k]
			if !ok {
				i = len(counts)
				index[k] = i
				counts = append(counts, Count{Label: k})
			}
			counts[i].Value += w
		}
	}

	slices.SortStableFunc(counts, func(a, b Count) int {
		return cmp.Compare(b.Value, a.Value)
	})
	return limit(counts, n)
}

// limit truncates s to n elements; n <= 0 means no limit.
func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
