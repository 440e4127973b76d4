package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/robalobadob/synquiz/internal/database"
	"github.com/robalobadob/synquiz/internal/quiz"
)

// ResultRecord is the persisted summary of a completed session.
type ResultRecord struct {
	SessionID      string             `json:"sessionId"`
	OwnerID        string             `json:"-"`
	Kind           quiz.Kind          `json:"kind"`
	DailyDate      string             `json:"dailyDate,omitempty"`
	Score          int                `json:"score"`
	TotalQuestions int                `json:"totalQuestions"`
	CorrectAnswers int                `json:"correctAnswers"`
	Streak         int                `json:"streak"`
	HintsUsed      int                `json:"hintsUsed"`
	ElapsedMs      int64              `json:"elapsedMs"`
	Achievements   []quiz.Achievement `json:"achievements"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// RecordFor builds the persisted summary of a completed session.
func RecordFor(s *quiz.Session, r quiz.QuizResult, at time.Time) ResultRecord {
	return ResultRecord{
		SessionID:      s.ID(),
		OwnerID:        s.OwnerID(),
		Kind:           s.Meta.Kind,
		DailyDate:      s.Meta.DailyDate,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.CorrectAnswers,
		Streak:         r.Streak,
		HintsUsed:      r.HintsUsed,
		ElapsedMs:      r.TimeSpentMs,
		Achievements:   r.Achievements,
		CreatedAt:      at.UTC(),
	}
}

// ResultRepository stores completed-session summaries.
type ResultRepository struct {
	db *database.DB
}

// NewResultRepository creates a result repository.
func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// SaveResult inserts rec and folds it into the owner's aggregate stats in
// one transaction. Guest owners have no users row; their stats update is a
// no-op.
func (r *ResultRepository) SaveResult(ctx context.Context, rec ResultRecord) error {
	ach, err := encodeList(rec.Achievements)
	if err != nil {
		return err
	}
	kind := rec.Kind
	if kind == "" {
		kind = quiz.KindStandard
	}
	var daily any
	if rec.DailyDate != "" {
		daily = rec.DailyDate
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_results
			   (session_id, owner_id, kind, daily_date, score, total_questions, correct_answers,
			    streak, hints_used, elapsed_ms, achievements, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.SessionID, rec.OwnerID, string(kind), daily, rec.Score, rec.TotalQuestions,
			rec.CorrectAnswers, rec.Streak, rec.HintsUsed, rec.ElapsedMs, ach, rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		return bumpUserStats(ctx, tx, rec.OwnerID, 1, int64(rec.Score), rec.Streak)
	})
}

// bumpUserStats folds sessions played, score and best streak into a user's
// aggregate row. Unknown ids (guests) match no row.
func bumpUserStats(ctx context.Context, q database.Querier, userID string, sessions int, score int64, streak int) error {
	if _, err := q.ExecContext(ctx,
		`UPDATE users
		 SET sessions_played = sessions_played + ?,
		     total_score = total_score + ?,
		     best_streak = CASE WHEN best_streak < ? THEN ? ELSE best_streak END
		 WHERE id = ?`,
		sessions, score, streak, streak, userID,
	); err != nil {
		return fmt.Errorf("update user stats: %w", err)
	}
	return nil
}

// RecentByOwner returns the owner's latest results, newest first.
func (r *ResultRepository) RecentByOwner(ctx context.Context, ownerID string, limit int) ([]ResultRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, owner_id, kind, COALESCE(daily_date, ''), score, total_questions,
		        correct_answers, streak, hints_used, elapsed_ms, achievements, created_at
		 FROM quiz_results
		 WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	out := make([]ResultRecord, 0, limit)
	for rows.Next() {
		var (
			rec  ResultRecord
			kind string
			ach  string
		)
		if err := rows.Scan(&rec.SessionID, &rec.OwnerID, &kind, &rec.DailyDate, &rec.Score,
			&rec.TotalQuestions, &rec.CorrectAnswers, &rec.Streak, &rec.HintsUsed,
			&rec.ElapsedMs, &ach, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		rec.Kind = quiz.Kind(kind)
		if rec.Achievements, err = decodeList[quiz.Achievement](ach); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// claimable selects a guest's results that can move to userID. Daily rows
// are skipped when the user already has a result for the same date.
const claimable = `owner_id = ? AND (kind <> 'daily' OR daily_date NOT IN (
	SELECT d FROM (SELECT daily_date AS d FROM quiz_results WHERE owner_id = ? AND kind = 'daily') AS mine))`

// ClaimGuestResults reassigns results recorded under a guest id to userID
// and folds them into the user's stats. It returns the number of rows moved.
func (r *ResultRepository) ClaimGuestResults(ctx context.Context, guestID, userID string) (int, error) {
	if guestID == "" || guestID == userID {
		return 0, nil
	}
	var moved int
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		var (
			count   int
			score   int64
			bestRun int
		)
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*), COALESCE(SUM(score), 0), COALESCE(MAX(streak), 0)
			 FROM quiz_results WHERE `+claimable,
			guestID, userID,
		).Scan(&count, &score, &bestRun); err != nil {
			return fmt.Errorf("count guest results: %w", err)
		}
		if count == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE quiz_results SET owner_id = ? WHERE `+claimable,
			userID, guestID, userID,
		); err != nil {
			return fmt.Errorf("claim results: %w", err)
		}
		if err := bumpUserStats(ctx, tx, userID, count, score, bestRun); err != nil {
			return err
		}
		moved = count
		return nil
	})
	return moved, err
}
