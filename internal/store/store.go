// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/tuicalm/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// HistoryLimit is the number of relaxation sessions kept on disk.
const HistoryLimit = 100

// Fixed-width UTC timestamps so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps SQLite access for session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS relax_sessions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			technique_id TEXT NOT NULL,
			level TEXT NOT NULL,
			duration_minutes REAL NOT NULL,
			completed_at TEXT NOT NULL,
			progress_percent REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS technique_progress (
			technique_id TEXT PRIMARY KEY,
			level TEXT NOT NULL,
			completed_sessions INTEGER NOT NULL,
			total_minutes REAL NOT NULL,
			streak INTEGER NOT NULL,
			last_session_at TEXT NOT NULL,
			weekly_goal INTEGER NOT NULL,
			weekly_progress INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS breath_sessions (
			id INTEGER PRIMARY KEY,
			pattern TEXT NOT NULL,
			cycles INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
			id INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			payload BLOB NOT NULL,
			created_at TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_relax_sessions_completed_at ON relax_sessions(completed_at);`,
		`CREATE INDEX IF NOT EXISTS idx_breath_sessions_ended_at ON breath_sessions(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, v)
}

// SaveCompletion stores a completed relaxation session together with the
// technique's updated progress, then trims history to HistoryLimit rows.
// A record id that is already stored is not inserted again and its progress
// is not applied.
func (s *Store) SaveCompletion(ctx context.Context, record model.CompletedSession, progress model.TechniqueProgress) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO relax_sessions (id, technique_id, level, duration_minutes, completed_at, progress_percent)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		record.ID,
		record.TechniqueID,
		string(record.Level),
		record.DurationMinutes,
		formatTime(record.CompletedAt),
		record.ProgressPercent,
	)
	if err != nil {
		return err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if inserted == 0 {
		// Already stored; its progress snapshot was applied then.
		return tx.Commit()
	}
	if err = upsertProgress(ctx, tx, record.TechniqueID, progress); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM relax_sessions WHERE seq NOT IN (
			SELECT seq FROM relax_sessions ORDER BY seq DESC LIMIT ?
		)`, HistoryLimit); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// levelRank mirrors model.Level.Rank for use inside SQL.
const levelRank = `CASE %s WHEN 'advanced' THEN 3 WHEN 'intermediate' THEN 2 WHEN 'beginner' THEN 1 ELSE 0 END`

// upsertProgress applies a progress snapshot unless the stored row has more
// completed sessions, so late snapshots never roll progress back. The stored
// level is only ever raised.
func upsertProgress(ctx context.Context, db execer, techniqueID string, p model.TechniqueProgress) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO technique_progress (technique_id, level, completed_sessions, total_minutes, streak, last_session_at, weekly_goal, weekly_progress)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(technique_id) DO UPDATE SET
			level = CASE WHEN `+fmt.Sprintf(levelRank, "excluded.level")+` >= `+fmt.Sprintf(levelRank, "technique_progress.level")+`
				THEN excluded.level ELSE technique_progress.level END,
			completed_sessions = excluded.completed_sessions,
			total_minutes = excluded.total_minutes,
			streak = excluded.streak,
			last_session_at = excluded.last_session_at,
			weekly_goal = excluded.weekly_goal,
			weekly_progress = excluded.weekly_progress
		 WHERE excluded.completed_sessions >= technique_progress.completed_sessions`,
		techniqueID,
		string(p.Level),
		p.CompletedSessions,
		p.TotalMinutes,
		p.Streak,
		formatTime(p.LastSessionAt),
		p.WeeklyGoal,
		p.WeeklyProgress,
	)
	return err
}

// SaveProgress upserts progress entries outside of a completion, e.g. after a
// goal change or a weekly reset.
func (s *Store) SaveProgress(ctx context.Context, progress map[string]model.TechniqueProgress) (err error) {
	if len(progress) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	for id, p := range progress {
		if err = upsertProgress(ctx, tx, id, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadProgress returns every stored progress entry keyed by technique id.
func (s *Store) LoadProgress(ctx context.Context) (map[string]model.TechniqueProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT technique_id, level, completed_sessions, total_minutes, streak, last_session_at, weekly_goal, weekly_progress
		 FROM technique_progress`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[string]model.TechniqueProgress{}
	for rows.Next() {
		var id, level, last string
		var p model.TechniqueProgress
		if err := rows.Scan(&id, &level, &p.CompletedSessions, &p.TotalMinutes, &p.Streak, &last, &p.WeeklyGoal, &p.WeeklyProgress); err != nil {
			return nil, err
		}
		p.Level = model.Level(level)
		if p.LastSessionAt, err = parseTime(last); err != nil {
			return nil, err
		}
		result[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListHistory returns completed relaxation sessions, newest first.
// A non-positive limit returns everything kept.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]model.CompletedSession, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, technique_id, level, duration_minutes, completed_at, progress_percent
		 FROM relax_sessions
		 ORDER BY seq DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CompletedSession
	for rows.Next() {
		var rec model.CompletedSession
		var level, completedAt string
		if err := rows.Scan(&rec.ID, &rec.TechniqueID, &level, &rec.DurationMinutes, &completedAt, &rec.ProgressPercent); err != nil {
			return nil, err
		}
		rec.Level = model.Level(level)
		if rec.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertBreathSession stores a finished breathing session.
func (s *Store) InsertBreathSession(ctx context.Context, b model.BreathSession) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO breath_sessions (pattern, cycles, started_at, ended_at, duration_seconds)
		 VALUES (?, ?, ?, ?, ?)`,
		b.Pattern,
		b.Cycles,
		formatTime(b.StartedAt),
		formatTime(b.EndedAt),
		b.DurationSeconds,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListBreathSessions returns breathing sessions in ascending end order.
// With filter.Last set only the most recent sessions are returned.
func (s *Store) ListBreathSessions(ctx context.Context, filter model.BreathFilter) ([]model.BreathSession, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Pattern != "" {
		clauses = append(clauses, "pattern = ?")
		args = append(args, filter.Pattern)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, formatTime(*filter.Since))
	}
	query := fmt.Sprintf(`SELECT pattern, cycles, started_at, ended_at, duration_seconds
		FROM breath_sessions
		WHERE %s
		ORDER BY ended_at DESC, id DESC`, strings.Join(clauses, " AND "))
	if filter.Last > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.BreathSession
	for rows.Next() {
		var b model.BreathSession
		var startedAt, endedAt string
		if err := rows.Scan(&b.Pattern, &b.Cycles, &startedAt, &endedAt, &b.DurationSeconds); err != nil {
			return nil, err
		}
		if b.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if b.EndedAt, err = parseTime(endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	return sessions, nil
}

// Enqueue adds an outbound record to the sync queue.
func (s *Store) Enqueue(ctx context.Context, kind string, payload []byte, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_queue (kind, payload, created_at, attempts) VALUES (?, ?, ?, 0)`,
		kind, payload, formatTime(at))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListQueue returns queued records, oldest first.
func (s *Store) ListQueue(ctx context.Context, limit int) ([]model.QueueItem, error) {
	query := `SELECT id, kind, payload, created_at, attempts FROM sync_queue ORDER BY id ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var items []model.QueueItem
	for rows.Next() {
		var it model.QueueItem
		var createdAt string
		if err := rows.Scan(&it.ID, &it.Kind, &it.Payload, &createdAt, &it.Attempts); err != nil {
			return nil, err
		}
		if it.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteQueued removes a record from the sync queue.
func (s *Store) DeleteQueued(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
	return err
}

// BumpAttempts increments a queued record's attempt count and returns it.
func (s *Store) BumpAttempts(ctx context.Context, id int64) (int, error) {
	if _, err := s.db.ExecContext(ctx, `UPDATE sync_queue SET attempts = attempts + 1 WHERE id = ?`, id); err != nil {
		return 0, err
	}
	var attempts int
	if err := s.db.QueryRowContext(ctx, `SELECT attempts FROM sync_queue WHERE id = ?`, id).Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

// Meta keys.
const (
	MetaWeekSeen = "week_seen"
)

// GetMeta reads a small value; ok is false when it was never set.
func (s *Store) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetMeta writes a small value.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// WeekSeen returns the week start recorded by the last run.
func (s *Store) WeekSeen(ctx context.Context) (time.Time, error) {
	v, ok, err := s.GetMeta(ctx, MetaWeekSeen)
	if err != nil || !ok {
		return time.Time{}, err
	}
	return parseTime(v)
}

// SetWeekSeen records the week start the tracker is counting.
func (s *Store) SetWeekSeen(ctx context.Context, week time.Time) error {
	return s.SetMeta(ctx, MetaWeekSeen, formatTime(week))
}
