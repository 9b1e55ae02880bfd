package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/vantage/internal/features"
	"github.com/MikeSquared-Agency/vantage/internal/hermes"
	"github.com/MikeSquared-Agency/vantage/internal/predict"
	"github.com/MikeSquared-Agency/vantage/internal/store"
)

// PredictionRecorder persists served configurations.
type PredictionRecorder interface {
	RecordPrediction(ctx context.Context, p store.Prediction) (uuid.UUID, error)
}

// VocabularySource lists unmapped CAP values.
type VocabularySource interface {
	ListUnmapped(ctx context.Context, limit int) ([]features.UnmappedCount, error)
}

// Options wires a Server. Only Port is required; every backend is optional.
type Options struct {
	Port       int
	APIToken   string
	Predictor  *predict.Predictor
	Encoder    *features.Encoder
	Tally      *features.Tally
	Events     hermes.Publisher
	Audit      PredictionRecorder
	Vocabulary VocabularySource
	// LoadTimeout bounds ReloadBundle. Zero means 10s.
	LoadTimeout time.Duration
	// BundleDir is the only directory model-trained events may reload
	// from. Empty disables event-driven reloads.
	BundleDir string
	Logger    *slog.Logger
}

type Server struct {
	router      *chi.Mux
	srv         *http.Server
	port        int
	predictor   atomic.Pointer[predict.Predictor]
	encoder     *features.Encoder
	tally       *features.Tally
	events      hermes.Publisher
	audit       PredictionRecorder
	vocab       VocabularySource
	loadTimeout time.Duration
	bundleDir   string
	logger      *slog.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tally := opts.Tally
	if tally == nil {
		tally = features.NewTally()
	}
	encoder := opts.Encoder
	if encoder == nil {
		encoder = features.NewEncoder(tally, logger)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    opts.Port,
		encoder: encoder,
		tally:   tally,
		events:  opts.Events,
		audit:   opts.Audit,
		vocab:   opts.Vocabulary,
		logger:  logger,

		loadTimeout: opts.LoadTimeout,
		bundleDir:   opts.BundleDir,
	}
	if s.loadTimeout <= 0 {
		s.loadTimeout = 10 * time.Second
	}
	pred := opts.Predictor
	if pred == nil {
		pred = predict.New(nil, encoder)
	}
	s.predictor.Store(pred)

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(opts.APIToken))
		r.Post("/ui-config/predict", s.predictUIConfig)
		r.Post("/ui-config/rules", s.rulesUIConfig)
		r.Get("/cap/questions", s.capQuestions)
		r.Post("/cap", s.buildCAP)
		r.Get("/model", s.modelMetadata)
		r.Get("/vocabulary/unmapped", s.unmappedVocabulary)
	})

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetPredictor swaps the predictor used by new requests.
func (s *Server) SetPredictor(p *predict.Predictor) {
	s.predictor.Store(p)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	b := s.predictor.Load().Bundle()
	if b == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "model_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "model": b.Version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
