package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/penguin/telemetry"
)

func openTestDB(t *testing.T) *EpisodeDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "db", "episodes.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *EpisodeDB) {
	t.Helper()
	ctx := context.Background()
	for _, id := range []string{"run-a", "run-b"} {
		if err := db.RecordRun(ctx, Run{ID: id, StartedAt: time.Now(), Seed: 42, Policy: "scripted", Arenas: 2}); err != nil {
			t.Fatal(err)
		}
	}
	recs := []telemetry.EpisodeRecord{
		{RunID: "run-a", Arena: 0, Episode: 1, Steps: 400, Reward: 7.92, Reason: "completed"},
		{RunID: "run-a", Arena: 0, Episode: 2, Steps: 5000, Reward: 1.0, Reason: "step_limit"},
		{RunID: "run-a", Arena: 1, Episode: 1, Steps: 300, Reward: 7.94, Reason: "completed"},
		{RunID: "run-b", Arena: 0, Episode: 1, Steps: 900, Reward: 7.82, Reason: "completed"},
	}
	for _, r := range recs {
		if err := db.Insert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
}

func TestList(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{Arena: -1}, 4},
		{"one run", Filter{RunID: "run-a", Arena: -1}, 3},
		{"one arena", Filter{RunID: "run-a", Arena: 1}, 1},
		{"limited", Filter{Arena: -1, Limit: 2}, 2},
		{"unknown run", Filter{RunID: "nope", Arena: -1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d episodes, want %d", len(got), tt.want)
			}
		})
	}
}

func TestBest(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)

	got, err := db.Best(context.Background(), "run-a", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Reward != 7.94 || got[1].Reward != 7.92 {
		t.Errorf("Best = %+v", got)
	}
}

func TestSummary(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()

	sum, err := db.Summary(ctx, "run-a")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Episodes != 3 || sum.Completed != 2 || sum.BestReward != 7.94 {
		t.Errorf("Summary = %+v", sum)
	}

	if _, err := db.Summary(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDuplicateEpisodeRejected(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)

	err := db.Insert(context.Background(), telemetry.EpisodeRecord{RunID: "run-a", Arena: 0, Episode: 1})
	if err == nil {
		t.Error("duplicate insert should fail")
	}
}

func TestRuns(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)

	runs, err := db.Runs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].Policy != "scripted" {
		t.Errorf("Runs = %+v", runs)
	}
}
