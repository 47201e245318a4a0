// Package server exposes verification over HTTP
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ppiankov/verifyhub/internal/logger"
	"github.com/ppiankov/verifyhub/internal/model"
	"github.com/ppiankov/verifyhub/internal/pipeline"
	"github.com/ppiankov/verifyhub/internal/submission"
)

// Service is the verification surface the handlers need.
// *submission.Service satisfies it.
type Service interface {
	Verify(ctx context.Context, req model.VerificationRequest) (*submission.Outcome, error)
	Submission(id string) (*submission.Submission, error)
	PutProfile(requesterID, fullName string) (*submission.Profile, error)
}

// errorBody is the payload for 400 and 404 responses
type errorBody struct {
	Error string `json:"error"`
}

// internalError is the opaque 500 payload. It keeps the result shape so
// clients that render errors verbatim still show something sensible.
func internalError() *model.VerificationResult {
	return model.RejectedResult("Unexpected verification error")
}

// Server serves the verification API
type Server struct {
	svc Service
	cfg model.ServerConfig
	log logger.Logger
}

// New creates a server for svc
func New(svc Service, cfg model.ServerConfig) *Server {
	return &Server{
		svc: svc,
		cfg: cfg,
		log: logger.Named("server"),
	}
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(accessLog(10 * time.Second))
	r.Use(recoverJSON)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "X-Submission-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(chimw.Timeout(s.cfg.RequestTimeout))
		}
		r.Post("/verify", s.handleVerify)
		r.Get("/submissions/{id}", s.handleSubmission)
		r.Put("/profiles/{requesterId}", s.handlePutProfile)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[model.VerificationRequest](r, s.cfg.MaxRequestBytes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.svc.Verify(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if out.Submission != nil {
		w.Header().Set("X-Submission-ID", out.Submission.ID)
	}
	writeJSON(w, http.StatusOK, out.Result)
}

func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.svc.Submission(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type profileBody struct {
	FullName string `json:"fullName" validate:"required,max=200"`
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	body, err := decodeJSON[profileBody](r, s.cfg.MaxRequestBytes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.svc.PutProfile(chi.URLParam(r, "requesterId"), body.FullName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// writeError maps err to a status code. Internal detail is logged, never returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, pipeline.ErrMissingLinks), errors.Is(err, submission.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, submission.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Submission not found"})
	default:
		logger.C(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, internalError())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
