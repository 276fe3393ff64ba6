package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/sdelicata/rekordbox-analyzer/pkg/analysis"
	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
)

var (
	//go:embed templates/*.html
	templatesFS embed.FS
	templates   = template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))
)

var funcs = template.FuncMap{
	"bars":      newBarChart,
	"histogram": newHistogram,
	"bytes":     humanBytes,
	"clock":     clock,
	"bpm":       formatBPM,
	"optInt":    optInt,
	"date":      formatDate,
	"stars":     stars,
	"inc":       func(i int) int { return i + 1 },
	"timestamp": func(t time.Time) string { return t.Format("2006-01-02 15:04 MST") },
}

func (s *Server) renderTemplate(w http.ResponseWriter, code int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("rendering template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug().Err(err).Msg("writing page")
	}
}

func (s *Server) renderError(w http.ResponseWriter, code int, reqErr error) {
	data := map[string]any{
		"Title":  fmt.Sprintf("%d %s", code, http.StatusText(code)),
		"Status": code,
	}

	if reqErr != nil {
		if code >= http.StatusInternalServerError {
			s.logger.Error().Err(reqErr).Int("status", code).Msg("serving request")
		}
		data["Message"] = reqErr.Error()
	}

	s.renderTemplate(w, code, "error.html", data)
}

type barRow struct {
	Label string
	Value int
	Pct   float64
}

type barChart struct {
	Title string
	Rows  []barRow
}

// newBarChart scales counts against the largest value for CSS width bars.
func newBarChart(title string, counts []analysis.Count) barChart {
	top := lo.MaxBy(counts, func(a, b analysis.Count) bool { return a.Value > b.Value }).Value
	return barChart{
		Title: title,
		Rows: lo.Map(counts, func(c analysis.Count, _ int) barRow {
			return barRow{Label: c.Label, Value: c.Value, Pct: percent(c.Value, top)}
		}),
	}
}

type histogramBar struct {
	Label string
	Count int
	Pct   float64
}

func newHistogram(bins []analysis.Bin) []histogramBar {
	top := lo.MaxBy(bins, func(a, b analysis.Bin) bool { return a.Count > b.Count }).Count
	return lo.Map(bins, func(b analysis.Bin, _ int) histogramBar {
		return histogramBar{
			Label: fmt.Sprintf("%.1f-%.1f BPM", b.Low, b.High),
			Count: b.Count,
			Pct:   percent(b.Count, top),
		}
	})
}

func percent(v, top int) float64 {
	if top <= 0 {
		return 0
	}
	return float64(v) * 100 / float64(top)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// clock formats seconds as m:ss, or h:mm:ss past an hour.
func clock(seconds *int) string {
	if seconds == nil {
		return ""
	}
	s := *seconds
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, s%3600/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func formatBPM(bpm *float64) string {
	if bpm == nil {
		return ""
	}
	return strconv.FormatFloat(*bpm, 'f', 2, 64)
}

func optInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func formatDate(d *collection.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func stars(rating int) string {
	rating = max(0, min(rating, 5))
	full := "★★★★★"
	empty := "☆☆☆☆☆"
	// Each star is three bytes in UTF-8.
	return full[:rating*3] + empty[:(5-rating)*3]
}
