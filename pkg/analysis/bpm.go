package analysis

import (
	"slices"

	"github.com/samber/lo"

	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
)

// BPMStats describes the tempo distribution of analysed tracks.
type BPMStats struct {
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Histogram []Bin   `json:"histogram"`
}

// Bin is one histogram bucket covering [Low, High). The last bin also includes High.
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// BPM computes tempo statistics over tracks with a positive BPM, which
// excludes both unanalysed tracks and missing values.
func BPM(tracks []collection.Track, bins int) BPMStats {
	values := lo.FilterMap(tracks, func(t collection.Track, _ int) (float64, bool) {
		if t.AverageBPM == nil || *t.AverageBPM <= 0 {
			return 0, false
		}
		return *t.AverageBPM, true
	})
	if len(values) == 0 {
		return BPMStats{Histogram: []Bin{}}
	}

	slices.Sort(values)
	n := len(values)

	median := values[n/2]
	if n%2 == 0 {
		median = (values[n/2-1] + values[n/2]) / 2
	}

	return BPMStats{
		Count:     n,
		Mean:      lo.Sum(values) / float64(n),
		Median:    median,
		Min:       values[0],
		Max:       values[n-1],
		Histogram: histogram(values, bins),
	}
}

// histogram buckets sorted values into equal-width bins between the first and last value.
func histogram(sorted []float64, bins int) []Bin {
	low, high := sorted[0], sorted[len(sorted)-1]
	if bins < 1 || low == high {
		return []Bin{{Low: low, High: high, Count: len(sorted)}}
	}

	width := (high - low) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Low = low + float64(i)*width
		out[i].High = low + float64(i+1)*width
	}
	out[bins-1].High = high

	for _, v := range sorted {
		i := min(int((v-low)/width), bins-1)
		out[i].Count++
	}
	return out
}
