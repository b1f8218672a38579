// Package api serves the read side of the record collections over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"feedtrack/internal/config"
	"feedtrack/internal/core"
	"feedtrack/internal/records"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const loggerContextKey = contextKey("logger")

type Server struct {
	Logger *slog.Logger
	Config *config.Config
	Store  *records.Store

	server *http.Server
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "api.Server")

	r := chi.NewMux()

	logger := func(ctx context.Context) *slog.Logger {
		return ctx.Value(loggerContextKey).(*slog.Logger)
	}

	r.Use(
		// json content type
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		},

		// Logging
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger := s.Logger.With("method", r.Method, "path", r.URL.Path)
				ctx := context.WithValue(r.Context(), loggerContextKey, logger)
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		},

		// Logging
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				sw := &statusWriter{ResponseWriter: w}

				next.ServeHTTP(sw, r)

				duration := time.Since(start)
				logger(r.Context()).Info("request", "duration", duration, "status", sw.status)
			})
		},

		// Recovering panics and logging
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if err := recover(); err != nil {
						logger(r.Context()).Error("panic recovered", "error", err)
						http.Error(w, `{"message": "Internal Server Error"}`, http.StatusInternalServerError)
					}
				}()
				next.ServeHTTP(w, r)
			})
		},
	)

	r.Get("/v1/records", s.listRecords)
	r.Get("/v1/liked", s.listLiked)
	r.Delete("/v1/records/{id}", s.deleteRecord)

	s.server = &http.Server{
		Handler:           r,
		Addr:              s.Config.APIAddr,
		ReadHeaderTimeout: time.Second,
		WriteTimeout:      time.Second,
		ReadTimeout:       time.Second,
		IdleTimeout:       time.Second,
	}
	return nil
}

func (s *Server) Run(ctx context.Context) error {
	s.Logger.Info("Starting API server", "addr", s.server.Addr)

	go func() {
		<-ctx.Done()
		// TODO: figure out a good context here, Run's ctx is cancelled.
		s.server.Shutdown(context.TODO()) //nolint:errcheck
	}()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	kind := core.InteractionKind(r.URL.Query().Get("kind"))
	query := r.URL.Query().Get("q")

	posts, err := s.Store.Search(r.Context(), s.Store.Interacted, kind, query)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, posts)
}

func (s *Server) listLiked(w http.ResponseWriter, r *http.Request) {
	posts, err := s.Store.List(r.Context(), s.Store.Liked)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, posts)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	kind := core.InteractionKind(r.URL.Query().Get("kind"))

	if kind == "" {
		http.Error(w, `{"message": "kind is required"}`, http.StatusBadRequest)
		return
	}

	if err := s.Store.DeleteRecord(r.Context(), s.Store.Interacted, id, kind); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	if v == nil {
		v = []core.PostRecord{}
	}
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.Logger.Error("request failed", "error", err)
	http.Error(w, `{"message": "Internal Server Error"}`, http.StatusInternalServerError)
}
