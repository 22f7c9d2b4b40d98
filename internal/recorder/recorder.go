// Package recorder hands finished sessions to local storage and the sync queue.
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuicalm/internal/clock"
	"github.com/verte-zerg/tuicalm/internal/model"
	"github.com/verte-zerg/tuicalm/internal/relax"
	"github.com/verte-zerg/tuicalm/internal/syncq"
)

// Store is the persistence the recorder writes to.
type Store interface {
	SaveCompletion(ctx context.Context, record model.CompletedSession, progress model.TechniqueProgress) error
	SaveProgress(ctx context.Context, progress map[string]model.TechniqueProgress) error
	InsertBreathSession(ctx context.Context, b model.BreathSession) (int64, error)
	Enqueue(ctx context.Context, kind string, payload []byte, at time.Time) (int64, error)
}

// Recorder persists results. Errors wrap model.ErrPersistenceUnavailable;
// the in-memory result the caller holds is already complete.
type Recorder struct {
	store  Store
	clock  clock.Clock
	sync   bool
	logger *zap.Logger
}

// Option customizes a Recorder.
type Option func(*Recorder)

// WithSync enqueues every record for remote sync.
func WithSync(enabled bool) Option {
	return func(r *Recorder) {
		r.sync = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the clock used to stamp queue entries.
func WithClock(clk clock.Clock) Option {
	return func(r *Recorder) {
		if clk != nil {
			r.clock = clk
		}
	}
}

// New returns a recorder over store.
func New(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		clock:  clock.System{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordRelax stores a completed relaxation session and its progress.
func (r *Recorder) RecordRelax(ctx context.Context, c relax.Completion) error {
	if r.store == nil {
		return fmt.Errorf("%w: no store", model.ErrPersistenceUnavailable)
	}
	if err := r.store.SaveCompletion(ctx, c.Record, c.Progress); err != nil {
		return fmt.Errorf("%w: save completion: %w", model.ErrPersistenceUnavailable, err)
	}
	r.logger.Info("recorded relaxation session",
		zap.String("technique", c.TechniqueID),
		zap.String("level", string(c.Progress.Level)),
		zap.Int("completed_sessions", c.Progress.CompletedSessions),
		zap.Int("streak", c.Progress.Streak))
	r.enqueue(ctx, syncq.KindRelax, c)
	return nil
}

// RecordBreath stores a finished breathing session.
func (r *Recorder) RecordBreath(ctx context.Context, b model.BreathSession) error {
	if r.store == nil {
		return fmt.Errorf("%w: no store", model.ErrPersistenceUnavailable)
	}
	if _, err := r.store.InsertBreathSession(ctx, b); err != nil {
		return fmt.Errorf("%w: save breath session: %w", model.ErrPersistenceUnavailable, err)
	}
	r.logger.Info("recorded breath session",
		zap.String("pattern", b.Pattern),
		zap.Int("cycles", b.Cycles),
		zap.Int("duration_seconds", b.DurationSeconds))
	r.enqueue(ctx, syncq.KindBreath, b)
	return nil
}

// SaveProgress stores progress entries changed outside a completion.
func (r *Recorder) SaveProgress(ctx context.Context, progress map[string]model.TechniqueProgress) error {
	if r.store == nil {
		return fmt.Errorf("%w: no store", model.ErrPersistenceUnavailable)
	}
	if err := r.store.SaveProgress(ctx, progress); err != nil {
		return fmt.Errorf("%w: save progress: %w", model.ErrPersistenceUnavailable, err)
	}
	r.enqueue(ctx, syncq.KindProgress, progress)
	return nil
}

// Remote sync is best effort; a failed enqueue is logged only.
func (r *Recorder) enqueue(ctx context.Context, kind string, v any) {
	if !r.sync {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn("encode sync payload", zap.String("kind", kind), zap.Error(err))
		return
	}
	if _, err := r.store.Enqueue(ctx, kind, payload, r.clock.Now()); err != nil {
		r.logger.Warn("enqueue sync payload", zap.String("kind", kind), zap.Error(err))
	}
}
