// Package db persists finished counting sessions and their repetitions in
// sqlite. The schema is managed by versioned migrations under migrations/.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/formsense/repcoach/internal/engine"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the sqlite database at path. Run MigrateUp before
// first use.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// sqlite allows one writer; serialise access through a single conn to
	// avoid SQLITE_BUSY under concurrent session finalisation.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// SessionRow is a stored session summary.
type SessionRow struct {
	ID         string
	Exercise   string
	StartedAt  time.Time
	FinishedAt time.Time
	FramesSeen int64
	TotalReps  int
	StatsJSON  string
}

// SaveSession stores a finished segment and its repetitions atomically.
// Implements the sink the session manager hands finished segments to.
func (db *DB) SaveSession(ctx context.Context, rec engine.SessionRecord) error {
	statsJSON := ""
	if rec.Stats != nil {
		s, err := rec.Stats.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to serialise session stats: %w", err)
		}
		statsJSON = s
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (session_id, exercise, started_at_ns, finished_at_ns, frames_seen, total_reps, stats_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Exercise), rec.StartedAt.UnixNano(), rec.FinishedAt.UnixNano(),
		rec.FramesSeen, len(rec.Reps), statsJSON)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for i := range rec.Reps {
		rep := &rec.Reps[i]
		metricsJSON, err := marshalMetrics(rep.Metrics)
		if err != nil {
			return fmt.Errorf("failed to serialise rep metrics: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO reps (rep_id, session_id, number, unix_nanos, duration_ns, grade, confidence, form_score, metrics_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rep.ID, rec.ID, rep.Number, rep.UnixNanos, int64(rep.Duration),
			string(rep.Grade), rep.Confidence, rep.FormScore, metricsJSON)
		if err != nil {
			return fmt.Errorf("failed to insert rep %d: %w", rep.Number, err)
		}
	}

	return tx.Commit()
}

// ListSessions returns stored session summaries, newest first.
func (db *DB) ListSessions(ctx context.Context, limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT session_id, exercise, started_at_ns, finished_at_ns, frames_seen, total_reps, stats_json
		FROM sessions ORDER BY started_at_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		var startedNs, finishedNs int64
		if err := rows.Scan(&r.ID, &r.Exercise, &startedNs, &finishedNs,
			&r.FramesSeen, &r.TotalReps, &r.StatsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		r.StartedAt = time.Unix(0, startedNs)
		r.FinishedAt = time.Unix(0, finishedNs)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetSession returns one stored session by ID.
func (db *DB) GetSession(ctx context.Context, id string) (*SessionRow, error) {
	var r SessionRow
	var startedNs, finishedNs int64
	err := db.QueryRowContext(ctx, `
		SELECT session_id, exercise, started_at_ns, finished_at_ns, frames_seen, total_reps, stats_json
		FROM sessions WHERE session_id = ?`, id).
		Scan(&r.ID, &r.Exercise, &startedNs, &finishedNs, &r.FramesSeen, &r.TotalReps, &r.StatsJSON)
	if err != nil {
		return nil, err
	}
	r.StartedAt = time.Unix(0, startedNs)
	r.FinishedAt = time.Unix(0, finishedNs)
	return &r, nil
}

// SessionReps returns the stored repetitions of one session in rep order.
func (db *DB) SessionReps(ctx context.Context, sessionID string) ([]engine.Repetition, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT rep_id, number, unix_nanos, duration_ns, grade, confidence, form_score, metrics_json
		FROM reps WHERE session_id = ? ORDER BY number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reps: %w", err)
	}
	defer rows.Close()

	var out []engine.Repetition
	for rows.Next() {
		var rep engine.Repetition
		var durationNs int64
		var grade, metricsJSON string
		if err := rows.Scan(&rep.ID, &rep.Number, &rep.UnixNanos, &durationNs,
			&grade, &rep.Confidence, &rep.FormScore, &metricsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan rep row: %w", err)
		}
		rep.Duration = time.Duration(durationNs)
		rep.Grade = engine.QualityGrade(grade)
		if rep.Metrics, err = unmarshalMetrics(metricsJSON); err != nil {
			return nil, fmt.Errorf("failed to parse rep metrics: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and, via the foreign key cascade, its reps.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
