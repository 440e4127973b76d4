package store

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/synquiz/internal/quiz"
)

func newSession(t *testing.T) *quiz.Session {
	t.Helper()
	pool := []quiz.Word{{ID: "w1", Word: "cheerful", Synonyms: []string{"happy"}, Difficulty: quiz.DifficultyEasy}}
	s, err := quiz.NewSession("owner", quiz.GameSettings{Difficulty: quiz.DifficultyEasy, NumberOfQuestions: 1}, pool, rand.New(rand.NewSource(1)), time.Now())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	s := newSession(t)

	if _, err := st.Get(ctx, s.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() before Save: err = %v, want ErrNotFound", err)
	}
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := st.Get(ctx, s.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != s {
		t.Error("Get() returned a different session")
	}
	if err := st.Delete(ctx, s.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := st.Get(ctx, s.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	sessions := make([]*quiz.Session, 20)
	for i := range sessions {
		sessions[i] = newSession(t)
	}

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *quiz.Session) {
			defer wg.Done()
			_ = st.Save(ctx, s)
			if _, err := st.Get(ctx, s.ID()); err != nil {
				t.Errorf("Get() error = %v", err)
			}
		}(s)
	}
	wg.Wait()
}
