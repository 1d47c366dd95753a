package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/formsense/repcoach/internal/engine"
)

const testMigrationsDir = "../../migrations"

// setupTestDB creates a migrated database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDB(path)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}
	return db
}

func testRecord(reps int) engine.SessionRecord {
	rec := engine.SessionRecord{
		ID:         uuid.NewString(),
		Exercise:   engine.PushupStandard,
		StartedAt:  time.Unix(1000, 0),
		FinishedAt: time.Unix(1060, 0),
		FramesSeen: 1800,
	}
	for i := 1; i <= reps; i++ {
		rec.Reps = append(rec.Reps, engine.Repetition{
			ID:         uuid.NewString(),
			Number:     i,
			UnixNanos:  time.Unix(1000+int64(i)*2, 0).UnixNano(),
			Duration:   1500 * time.Millisecond,
			Grade:      engine.GradeGood,
			Confidence: 0.8,
			FormScore:  0.75,
			Metrics:    map[string]float64{"overall_visibility": 0.9},
		})
	}
	rec.Stats = engine.ComputeSessionStatistics(rec.Reps, engine.DefaultQualityThreshold)
	return rec
}

func TestSaveAndGetSession(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := testRecord(3)
	if err := db.SaveSession(ctx, rec); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := db.GetSession(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Exercise != string(engine.PushupStandard) {
		t.Errorf("Exercise = %q, want pushup", got.Exercise)
	}
	if got.TotalReps != 3 {
		t.Errorf("TotalReps = %d, want 3", got.TotalReps)
	}
	if got.FramesSeen != 1800 {
		t.Errorf("FramesSeen = %d, want 1800", got.FramesSeen)
	}
	if !got.StartedAt.Equal(rec.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, rec.StartedAt)
	}

	stats, err := engine.ParseSessionStatistics(got.StatsJSON)
	if err != nil {
		t.Fatalf("stored stats unparseable: %v", err)
	}
	if stats.TotalReps != 3 {
		t.Errorf("stored stats TotalReps = %d, want 3", stats.TotalReps)
	}
}

func TestSessionReps(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := testRecord(2)
	if err := db.SaveSession(ctx, rec); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	reps, err := db.SessionReps(ctx, rec.ID)
	if err != nil {
		t.Fatalf("SessionReps failed: %v", err)
	}
	if len(reps) != 2 {
		t.Fatalf("got %d reps, want 2", len(reps))
	}
	if reps[0].Number != 1 || reps[1].Number != 2 {
		t.Errorf("reps out of order: %d, %d", reps[0].Number, reps[1].Number)
	}
	if reps[0].Grade != engine.GradeGood {
		t.Errorf("Grade = %q, want good", reps[0].Grade)
	}
	if reps[0].Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", reps[0].Duration)
	}
	if diff := cmp.Diff(rec.Reps[0].Metrics, reps[0].Metrics); diff != "" {
		t.Errorf("stored metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := testRecord(1)
	second := testRecord(1)
	second.StartedAt = first.StartedAt.Add(time.Hour)

	if err := db.SaveSession(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveSession(ctx, second); err != nil {
		t.Fatal(err)
	}

	sessions, err := db.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != second.ID {
		t.Errorf("expected newest session first, got %s", sessions[0].ID)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := testRecord(2)
	if err := db.SaveSession(ctx, rec); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteSession(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	if _, err := db.GetSession(ctx, rec.ID); err != sql.ErrNoRows {
		t.Errorf("GetSession after delete = %v, want ErrNoRows", err)
	}
	reps, err := db.SessionReps(ctx, rec.ID)
	if err != nil {
		t.Fatalf("SessionReps failed: %v", err)
	}
	if len(reps) != 0 {
		t.Errorf("reps survived cascade delete: %d", len(reps))
	}

	if err := db.DeleteSession(ctx, "missing"); err != sql.ErrNoRows {
		t.Errorf("DeleteSession(missing) = %v, want ErrNoRows", err)
	}
}

func TestMigrateVersionAndDown(t *testing.T) {
	db := setupTestDB(t)

	version, dirty, err := db.MigrateVersion(testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if dirty {
		t.Error("migration state is dirty")
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}

	if err := db.MigrateDown(testMigrationsDir); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	version, _, err = db.MigrateVersion(testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("version after down = %d, want 1", version)
	}
}

func TestMigrateUpIdempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := db.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}
}
