package daily

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalobadob/synquiz/internal/database"
	"github.com/robalobadob/synquiz/internal/quiz"
	"github.com/robalobadob/synquiz/internal/repository"
)

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 2026-03-02 08:00 in UTC+10 is still March 1st in UTC
	got := DateKey(time.Date(2026, 3, 2, 8, 0, 0, 0, loc))
	if got != "2026-03-01" {
		t.Errorf("DateKey() = %q, want 2026-03-01", got)
	}
}

func TestSeed(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if Seed(day, "salt") != Seed(day.Add(23*time.Hour), "salt") {
		t.Error("Seed differs within the same day")
	}
	if Seed(day, "salt") == Seed(day.AddDate(0, 0, 1), "salt") {
		t.Error("Seed equal on consecutive days")
	}
	if Seed(day, "salt") == Seed(day, "other") {
		t.Error("Seed ignores salt")
	}

	a, b := Rand(day, "salt"), Rand(day, "salt")
	for i := 0; i < 5; i++ {
		if a.Int63() != b.Int63() {
			t.Fatal("Rand sequences differ for the same date")
		}
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite3", filepath.Join(t.TempDir(), "daily.db"), "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	users := repository.NewUserRepository(db)
	results := repository.NewResultRepository(db)
	dave, err := users.Create(ctx, "dave", "hash")
	if err != nil {
		t.Fatal(err)
	}

	date := "2026-03-01"
	recs := []repository.ResultRecord{
		{SessionID: "a", OwnerID: dave.ID, Kind: quiz.KindDaily, DailyDate: date, Score: 300, ElapsedMs: 50000},
		{SessionID: "b", OwnerID: "anon-1", Kind: quiz.KindDaily, DailyDate: date, Score: 300, ElapsedMs: 30000},
		{SessionID: "c", OwnerID: "anon-2", Kind: quiz.KindDaily, DailyDate: date, Score: 100, ElapsedMs: 1000},
		{SessionID: "d", OwnerID: "anon-3", Kind: quiz.KindDaily, DailyDate: "2026-02-28", Score: 900},
		{SessionID: "e", OwnerID: "anon-4", Kind: quiz.KindStandard, Score: 900},
	}
	for _, r := range recs {
		if err := results.SaveResult(ctx, r); err != nil {
			t.Fatalf("SaveResult(%s) error = %v", r.SessionID, err)
		}
	}

	st := NewStore(db)
	played, err := st.AlreadyPlayed(ctx, dave.ID, date)
	if err != nil || !played {
		t.Errorf("AlreadyPlayed(dave) = %v, %v; want true", played, err)
	}
	played, err = st.AlreadyPlayed(ctx, "anon-4", date)
	if err != nil || played {
		t.Errorf("AlreadyPlayed(standard only) = %v, %v; want false", played, err)
	}

	lb, err := st.Leaderboard(ctx, date, 10)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	wantOwners := []string{"anon-1", dave.ID, "anon-2"}
	if len(lb) != len(wantOwners) {
		t.Fatalf("Leaderboard() = %+v", lb)
	}
	for i, want := range wantOwners {
		if lb[i].OwnerID != want || lb[i].Rank != i+1 {
			t.Errorf("row %d = %+v, want owner %s rank %d", i, lb[i], want, i+1)
		}
	}
	if lb[1].Username != "dave" || lb[0].Username != "" {
		t.Errorf("usernames = %q, %q", lb[0].Username, lb[1].Username)
	}
}
