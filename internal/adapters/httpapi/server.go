// Package httpapi exposes the ad session conversation over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bnema/adforge/internal/application"
	"github.com/bnema/adforge/internal/domain"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Sessions is the conversation contract served over HTTP.
type Sessions interface {
	StartSession(ctx context.Context) (domain.SessionID, error)
	UploadImage(ctx context.Context, id domain.SessionID, data []byte, declaredType string) (application.UploadResult, error)
	SubmitAnswer(ctx context.Context, id domain.SessionID, text string) (application.AnswerResult, error)
	PollStatus(ctx context.Context, id domain.SessionID) (application.Status, error)
	FetchArtifact(ctx context.Context, ref domain.ArtifactRef) (domain.Artifact, error)
	CancelSession(ctx context.Context, id domain.SessionID) error
}

type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
}

type Server struct {
	sessions  Sessions
	router    *mux.Router
	handler   http.Handler
	maxUpload int64
	logger    *zap.Logger
}

func New(sessions Sessions, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		sessions:  sessions,
		router:    mux.NewRouter(),
		maxUpload: opts.MaxUploadBytes,
		logger:    opts.Logger,
	}
	s.registerRoutes(opts.Gatherer)

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	})
	s.handler = c.Handler(s.router)
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/sessions", s.handleStartSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}", s.handlePollStatus).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}", s.handleCancel).Methods(http.MethodDelete)
	v1.HandleFunc("/sessions/{id}/image", s.handleUpload).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/answers", s.handleAnswer).Methods(http.MethodPost)
	v1.HandleFunc("/artifacts/{ref:.+}", s.handleArtifact).Methods(http.MethodGet)
}

// Serve runs the HTTP server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessions.StartSession(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, startResponse{SessionID: string(id)})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(mux.Vars(r)["id"])

	body := io.Reader(r.Body)
	if s.maxUpload > 0 {
		// One byte past the limit lets the service report the oversize.
		body = io.LimitReader(r.Body, s.maxUpload+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read upload: " + err.Error()})
		return
	}

	if _, err := s.sessions.UploadImage(r.Context(), id, data, r.Header.Get("Content-Type")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, uploadResponse{Accepted: true})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(mux.Vars(r)["id"])

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	result, err := s.sessions.SubmitAnswer(r.Context(), id, req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnswerResponse(result))
}

func (s *Server) handlePollStatus(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(mux.Vars(r)["id"])
	status, err := s.sessions.PollStatus(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatusResponse(status))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(mux.Vars(r)["id"])
	if err := s.sessions.CancelSession(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelled"})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	ref := domain.ArtifactRef(mux.Vars(r)["ref"])
	artifact, err := s.sessions.FetchArtifact(r.Context(), ref)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	if !artifact.ExpiresAt.IsZero() {
		w.Header().Set("Expires", artifact.ExpiresAt.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		s.logger.Debug("write artifact", zap.String("ref", string(ref)), zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
		resp.Reprompt = verr.Reprompt
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBackpressure):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrArtifactExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrArtifactNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidStage):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
