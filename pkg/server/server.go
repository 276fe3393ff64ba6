// Package server serves the upload page, the dashboard and the export downloads.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sdelicata/rekordbox-analyzer/pkg/analysis"
	"github.com/sdelicata/rekordbox-analyzer/pkg/collection"
	"github.com/sdelicata/rekordbox-analyzer/pkg/session"
)

const sessionCookie = "rca_session"

// Options configures a Server.
type Options struct {
	MaxUploadBytes int64
	Limits         analysis.Limits
	CookieTTL      time.Duration
}

// Server is the dashboard's http.Handler.
type Server struct {
	logger zerolog.Logger
	store  *session.Store
	parser *collection.Parser
	opts   Options
	router chi.Router
}

// New wires the routes and middleware for the dashboard.
func New(logger zerolog.Logger, store *session.Store, opts Options) *Server {
	s := &Server{
		logger: logger,
		store:  store,
		parser: collection.NewParser(logger),
		opts:   opts,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.getIndex)
	r.Get("/healthz", s.getHealth)
	r.Post("/collections", s.postCollection)
	r.Get("/collections/{id}", s.getDashboard)
	r.Get("/collections/{id}/report.json", s.getReport)
	r.Get("/collections/{id}/export.{format}", s.getExport)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, http.StatusNotFound, nil)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			ev := s.logger.Info()
			if status >= http.StatusInternalServerError {
				ev = s.logger.Error()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote", r.RemoteAddr).
				Msg("request")
		}()

		next.ServeHTTP(ww, r)
	})
}
