// Package server exposes the tracker over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/lchelper/lchelper/internal/problems"
	"github.com/lchelper/lchelper/internal/store"
)

// Explainer serves AI explanations.
type Explainer interface {
	Explain(ctx context.Context, slug string, force bool) (*store.ExplanationData, bool, error)
}

// Server routes API requests to the problems service.
type Server struct {
	svc       *problems.Service
	explainer Explainer
	log       zerolog.Logger
	router    *mux.Router
}

// New builds the router. explainer may be nil, in which case the explain
// endpoint answers 503.
func New(svc *problems.Service, explainer Explainer, log zerolog.Logger) *Server {
	s := &Server{
		svc:       svc,
		explainer: explainer,
		log:       log.With().Str("component", "http").Logger(),
		router:    mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(
		hlog.NewHandler(s.log),
		requestID,
		hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", d).
				Msg("request")
		}),
	)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sync", s.sync).Methods(http.MethodPost)
	api.HandleFunc("/problems", s.listProblems).Methods(http.MethodGet)
	api.HandleFunc("/problems/{slug}", s.getProblem).Methods(http.MethodGet)
	api.HandleFunc("/problems/{slug}", s.deleteProblem).Methods(http.MethodDelete)
	api.HandleFunc("/problems/{slug}/history", s.problemHistory).Methods(http.MethodGet)
	api.HandleFunc("/revisions", s.recordRevision).Methods(http.MethodPost)
	api.HandleFunc("/calendar", s.calendar).Methods(http.MethodGet)
	api.HandleFunc("/notes", s.listNotes).Methods(http.MethodGet)
	api.HandleFunc("/notes", s.createNote).Methods(http.MethodPost)
	api.HandleFunc("/notes", s.updateNote).Methods(http.MethodPatch)
	api.HandleFunc("/notes", s.deleteNote).Methods(http.MethodDelete)
	api.HandleFunc("/ai/explain", s.explain).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.log.Info().Msg("http server stopped")
	return nil
}
