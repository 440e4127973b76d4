package daily

import (
	"context"
	"fmt"

	"github.com/robalobadob/synquiz/internal/database"
)

// Store answers daily-challenge questions from the quiz_results table.
type Store struct{ db *database.DB }

func NewStore(db *database.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether ownerID has a recorded daily result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, ownerID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM quiz_results WHERE owner_id = ? AND kind = 'daily' AND daily_date = ?`,
		ownerID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// LBRow is one leaderboard line. Username is empty for guests.
type LBRow struct {
	Rank           int    `json:"rank"`
	OwnerID        string `json:"-"`
	Username       string `json:"username,omitempty"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
	ElapsedMs      int64  `json:"elapsedMs"`
}

// Leaderboard returns the top results for date: highest score first, then
// fastest, then earliest.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.owner_id, COALESCE(u.username, ''), r.score, r.correct_answers, r.elapsed_ms
		 FROM quiz_results r
		 LEFT JOIN users u ON u.id = r.owner_id
		 WHERE r.kind = 'daily' AND r.daily_date = ?
		 ORDER BY r.score DESC, r.elapsed_ms ASC, r.created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.OwnerID, &r.Username, &r.Score, &r.CorrectAnswers, &r.ElapsedMs); err != nil {
			return nil, err
		}
		r.Rank = len(out) + 1
		out = append(out, r)
	}
	return out, rows.Err()
}
