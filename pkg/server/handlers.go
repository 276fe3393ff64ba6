package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/samber/lo"

	"github.com/sdelicata/rekordbox-analyzer/pkg/analysis"
	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
	"github.com/sdelicata/rekordbox-analyzer/pkg/export"
	"github.com/sdelicata/rekordbox-analyzer/pkg/session"
)

const (
	uploadField = "collection"
	formMemory  = 32 << 20

	msgInvalidDocument = "Could not read this file. Please check it is a Rekordbox XML collection export."
	msgNoFile          = "Choose a Rekordbox XML file to upload."
)

type indexView struct {
	Title     string
	Error     string
	CurrentID string
	MaxUpload string
}

func (s *Server) getIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, "")
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, code int, msg string) {
	view := indexView{
		Title:     "Rekordbox collection analyzer",
		Error:     msg,
		MaxUpload: humanBytes(s.opts.MaxUploadBytes),
	}
	if id, ok := s.currentID(r); ok {
		view.CurrentID = id
	}
	s.renderTemplate(w, code, "index.html", view)
}

func (s *Server) postCollection(w http.ResponseWriter, r *http.Request) {
	tooLarge := func() {
		s.renderIndex(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("This file is larger than the %s upload limit.", humanBytes(s.opts.MaxUploadBytes)))
	}
	if r.ContentLength > s.opts.MaxUploadBytes {
		tooLarge()
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			tooLarge()
			return
		}
		s.renderIndex(w, r, http.StatusBadRequest, msgNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		s.renderIndex(w, r, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	log := s.logger.With().Str("file", header.Filename).Int64("size", header.Size).Logger()

	coll, err := s.parser.Decode(file)
	if err != nil {
		if errors.Is(err, collection.ErrInvalidDocument) {
			log.Warn().Err(err).Msg("rejected upload")
			s.renderIndex(w, r, http.StatusUnprocessableEntity, msgInvalidDocument)
			return
		}
		s.renderError(w, http.StatusInternalServerError, fmt.Errorf("reading upload: %w", err))
		return
	}

	entry := &session.Entry{
		FileName:   filepath.Base(header.Filename),
		UploadedAt: time.Now().UTC(),
		Collection: coll,
		Report:     analysis.Build(coll, s.opts.Limits),
	}

	if prev, ok := s.currentID(r); ok {
		s.store.Delete(prev)
	}
	id := s.store.Put(entry)

	log.Info().
		Str("id", id).
		Int("tracks", coll.Metadata.TrackCount).
		Int("malformed_fields", coll.Metadata.MalformedFields).
		Msg("collection uploaded")

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.opts.CookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/collections/"+id, http.StatusSeeOther)
}

// currentID returns the upload id referenced by the session cookie, if it is still stored.
func (s *Server) currentID(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	if _, ok := s.store.Get(c.Value); !ok {
		return "", false
	}
	return c.Value, true
}

func (s *Server) entry(w http.ResponseWriter, r *http.Request) (string, *session.Entry, bool) {
	id := chi.URLParam(r, "id")
	e, ok := s.store.Get(id)
	if !ok {
		s.renderError(w, http.StatusNotFound, errors.New("this collection is unknown or has expired, please upload it again"))
		return "", nil, false
	}
	return id, e, true
}

type dashboardView struct {
	Title      string
	ID         string
	FileName   string
	UploadedAt time.Time
	Report     analysis.Report
	TopBars    []analysis.Count
	Tracks     []collection.Track
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	id, e, ok := s.entry(w, r)
	if !ok {
		return
	}

	s.renderTemplate(w, http.StatusOK, "dashboard.html", dashboardView{
		Title:      e.FileName,
		ID:         id,
		FileName:   e.FileName,
		UploadedAt: e.UploadedAt,
		Report:     e.Report,
		TopBars:    topTrackBars(e.Report.TopTracks),
		Tracks:     e.Collection.Tracks,
	})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	_, e, ok := s.entry(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, e.Report)
}

func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.renderError(w, http.StatusNotFound, err)
		return
	}
	_, e, ok := s.entry(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Encode(&buf, format, e.Collection.Tracks); err != nil {
		s.renderError(w, http.StatusInternalServerError, fmt.Errorf("encoding export: %w", err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug().Err(err).Msg("writing export")
	}
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.store.Len(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, fmt.Errorf("encoding JSON: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(data, '\n')); err != nil {
		s.logger.Debug().Err(err).Msg("writing JSON")
	}
}

func topTrackBars(top []analysis.TrackSummary) []analysis.Count {
	return lo.Map(top, func(t analysis.TrackSummary, _ int) analysis.Count {
		label := t.Name
		if t.Artist != "" {
			label += " - " + t.Artist
		}
		return analysis.Count{Label: label, Value: t.PlayCount}
	})
}
