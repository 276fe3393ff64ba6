package analysis

import (
	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
)

// Limits caps the length of each ranking in a Report.
type Limits struct {
	TopTracks   int `json:"top_tracks"   yaml:"top_tracks"`
	BPMBins     int `json:"bpm_bins"     yaml:"bpm_bins"`
	Genres      int `json:"genres"       yaml:"genres"`
	SplitGenres int `json:"split_genres" yaml:"split_genres"`
	Artists     int `json:"artists"      yaml:"artists"`
	Keys        int `json:"keys"         yaml:"keys"`
}

// DefaultLimits returns the limits the dashboard uses unless configured otherwise.
func DefaultLimits() Limits {
	return Limits{
		TopTracks:   25,
		BPMBins:     50,
		Genres:      20,
		SplitGenres: 15,
		Artists:     20,
		Keys:        30,
	}
}

// Report bundles every statistic rendered for one collection.
type Report struct {
	Metadata     collection.Metadata `json:"metadata"`
	Overview     Overview            `json:"overview"`
	TopTracks    []TrackSummary      `json:"top_tracks"`
	BPM          BPMStats            `json:"bpm"`
	Genres       []Count             `json:"genres"`
	SplitGenres  []Count             `json:"split_genres"`
	ArtistPlays  []Count             `json:"artist_plays"`
	ArtistCounts []Count             `json:"artist_counts"`
	Keys         []Count             `json:"keys"`
	Ratings      []Count             `json:"ratings"`
}

// Build computes the full report for coll.
func Build(coll *collection.Collection, limits Limits) Report {
	tracks := coll.Tracks
	return Report{
		Metadata:     coll.Metadata,
		Overview:     Summarize(tracks),
		TopTracks:    TopTracks(tracks, limits.TopTracks),
		BPM:          BPM(tracks, limits.BPMBins),
		Genres:       GenreCounts(tracks, limits.Genres),
		SplitGenres:  SplitGenreCounts(tracks, limits.SplitGenres),
		ArtistPlays:  ArtistPlays(tracks, limits.Artists),
		ArtistCounts: ArtistCounts(tracks, limits.Artists),
		Keys:         KeyCounts(tracks, limits.Keys),
		Ratings:      Ratings(tracks),
	}
}
