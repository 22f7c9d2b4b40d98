// Package server exposes progress and history over HTTP and accepts records
// pushed by the sync queue of another instance.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuicalm/internal/achieve"
	"github.com/verte-zerg/tuicalm/internal/breath"
	"github.com/verte-zerg/tuicalm/internal/catalog"
	"github.com/verte-zerg/tuicalm/internal/model"
	"github.com/verte-zerg/tuicalm/internal/relax"
	"github.com/verte-zerg/tuicalm/internal/syncq"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 20
)

// Store is the persistence the API reads from and ingests into.
type Store interface {
	LoadProgress(ctx context.Context) (map[string]model.TechniqueProgress, error)
	ListHistory(ctx context.Context, limit int) ([]model.CompletedSession, error)
	ListBreathSessions(ctx context.Context, filter model.BreathFilter) ([]model.BreathSession, error)
	SaveCompletion(ctx context.Context, record model.CompletedSession, progress model.TechniqueProgress) error
	SaveProgress(ctx context.Context, progress map[string]model.TechniqueProgress) error
	InsertBreathSession(ctx context.Context, b model.BreathSession) (int64, error)
}

// API serves the HTTP routes.
type API struct {
	store  Store
	logger *zap.Logger
}

// NewAPI returns an API over st. A nil logger discards output.
func NewAPI(st Store, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{store: st, logger: logger}
}

// Router builds the chi router with middleware and all routes.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}).Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/progress", a.ListProgress)
		r.Get("/progress/{techniqueId}", a.GetProgress)
		r.Get("/history", a.ListHistory)
		r.Get("/achievements/{techniqueId}", a.GetAchievements)
		r.Get("/breath", a.ListBreath)
		r.Get("/techniques", a.ListTechniques)
		r.Get("/techniques/{techniqueId}", a.GetTechnique)
		r.Get("/patterns", a.ListPatterns)
	})

	// Sync ingest; paths match syncq.HTTPSender.
	r.Route("/api", func(r chi.Router) {
		r.Post("/"+syncq.KindRelax, a.IngestRelax)
		r.Post("/"+syncq.KindBreath, a.IngestBreath)
		r.Post("/"+syncq.KindProgress, a.IngestProgress)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			a.logger.Debug("write health", zap.Error(err))
		}
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (a *API) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// --- Helper Functions ---

func (a *API) respondWithError(w http.ResponseWriter, code int, message string) {
	a.respondWithJSON(w, code, map[string]string{"error": message})
}

func (a *API) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("marshal response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		a.logger.Debug("write response", zap.Error(err))
	}
}

func (a *API) storeError(w http.ResponseWriter, op string, err error) {
	a.logger.Error(op, zap.Error(err))
	a.respondWithError(w, http.StatusServiceUnavailable, model.ErrPersistenceUnavailable.Error())
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		a.respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func positiveQuery(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

// --- Progress Handlers ---

// ProgressEntry is one technique's progress with its derived level status.
type ProgressEntry struct {
	TechniqueID string `json:"technique_id"`
	model.TechniqueProgress
	LevelPercent  float64 `json:"level_percent"`
	WeeklyPercent float64 `json:"weekly_percent"`
}

func newProgressEntry(id string, p model.TechniqueProgress) ProgressEntry {
	return ProgressEntry{
		TechniqueID:       id,
		TechniqueProgress: p,
		LevelPercent:      achieve.LevelProgress(p),
		WeeklyPercent:     achieve.WeeklyPercent(p),
	}
}

func (a *API) ListProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := a.store.LoadProgress(r.Context())
	if err != nil {
		a.storeError(w, "load progress", err)
		return
	}
	ids := make([]string, 0, len(progress))
	for id := range progress {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	entries := make([]ProgressEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, newProgressEntry(id, progress[id]))
	}
	a.respondWithJSON(w, http.StatusOK, entries)
}

func (a *API) GetProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "techniqueId")
	progress, err := a.store.LoadProgress(r.Context())
	if err != nil {
		a.storeError(w, "load progress", err)
		return
	}
	p, ok := progress[id]
	if !ok {
		a.respondWithError(w, http.StatusNotFound, "no progress for technique "+id)
		return
	}
	a.respondWithJSON(w, http.StatusOK, newProgressEntry(id, p))
}

func (a *API) GetAchievements(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "techniqueId")
	progress, err := a.store.LoadProgress(r.Context())
	if err != nil {
		a.storeError(w, "load progress", err)
		return
	}
	// Techniques without sessions evaluate against an empty entry.
	p, ok := progress[id]
	if !ok {
		p = model.NewTechniqueProgress()
	}
	a.respondWithJSON(w, http.StatusOK, achieve.Evaluate(p, achieve.Defaults))
}

// --- History Handlers ---

func (a *API) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := positiveQuery(r, "limit")
	if err != nil {
		a.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	history, err := a.store.ListHistory(r.Context(), limit)
	if err != nil {
		a.storeError(w, "list history", err)
		return
	}
	if technique := r.URL.Query().Get("technique"); technique != "" {
		filtered := history[:0]
		for _, h := range history {
			if h.TechniqueID == technique {
				filtered = append(filtered, h)
			}
		}
		history = filtered
	}
	if history == nil {
		history = []model.CompletedSession{}
	}
	a.respondWithJSON(w, http.StatusOK, history)
}

func (a *API) ListBreath(w http.ResponseWriter, r *http.Request) {
	last, err := positiveQuery(r, "last")
	if err != nil {
		a.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := model.BreathFilter{Pattern: r.URL.Query().Get("pattern"), Last: last}
	if since := r.URL.Query().Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			a.respondWithError(w, http.StatusBadRequest, "invalid since, use RFC 3339")
			return
		}
		filter.Since = &t
	}
	sessions, err := a.store.ListBreathSessions(r.Context(), filter)
	if err != nil {
		a.storeError(w, "list breath sessions", err)
		return
	}
	if sessions == nil {
		sessions = []model.BreathSession{}
	}
	a.respondWithJSON(w, http.StatusOK, sessions)
}

// --- Reference Handlers ---

func (a *API) ListTechniques(w http.ResponseWriter, r *http.Request) {
	a.respondWithJSON(w, http.StatusOK, catalog.List())
}

func (a *API) GetTechnique(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "techniqueId")
	t, ok := catalog.Lookup(id)
	if !ok {
		a.respondWithError(w, http.StatusNotFound, fmt.Sprintf("%s: %s", model.ErrUnknownTechnique, id))
		return
	}
	a.respondWithJSON(w, http.StatusOK, t)
}

// NamedPattern is a breathing pattern with its lookup name.
type NamedPattern struct {
	Name string `json:"name"`
	breath.Pattern
	CycleSeconds int `json:"cycle_seconds"`
}

func (a *API) ListPatterns(w http.ResponseWriter, r *http.Request) {
	names := breath.PatternNames()
	patterns := make([]NamedPattern, 0, len(names))
	for _, name := range names {
		p, _ := breath.LookupPattern(name)
		patterns = append(patterns, NamedPattern{Name: name, Pattern: p, CycleSeconds: p.CycleSeconds()})
	}
	a.respondWithJSON(w, http.StatusOK, patterns)
}

// --- Ingest Handlers ---

func (a *API) IngestRelax(w http.ResponseWriter, r *http.Request) {
	var c relax.Completion
	if !a.decode(w, r, &c) {
		return
	}
	if c.Record.ID == "" || c.Record.TechniqueID == "" {
		a.respondWithError(w, http.StatusBadRequest, "record id and technique_id are required")
		return
	}
	if err := a.store.SaveCompletion(r.Context(), c.Record, c.Progress); err != nil {
		a.storeError(w, "ingest completion", err)
		return
	}
	a.respondWithJSON(w, http.StatusCreated, map[string]string{"id": c.Record.ID})
}

func (a *API) IngestBreath(w http.ResponseWriter, r *http.Request) {
	var b model.BreathSession
	if !a.decode(w, r, &b) {
		return
	}
	if b.Pattern == "" || b.EndedAt.IsZero() {
		a.respondWithError(w, http.StatusBadRequest, "pattern and ended_at are required")
		return
	}
	id, err := a.store.InsertBreathSession(r.Context(), b)
	if err != nil {
		a.storeError(w, "ingest breath session", err)
		return
	}
	a.respondWithJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (a *API) IngestProgress(w http.ResponseWriter, r *http.Request) {
	var progress map[string]model.TechniqueProgress
	if !a.decode(w, r, &progress) {
		return
	}
	for id, p := range progress {
		if _, ok := model.ParseLevel(string(p.Level)); !ok {
			a.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid level %q for %s", p.Level, id))
			return
		}
	}
	if err := a.store.SaveProgress(r.Context(), progress); err != nil {
		a.storeError(w, "ingest progress", err)
		return
	}
	a.respondWithJSON(w, http.StatusOK, map[string]int{"updated": len(progress)})
}
