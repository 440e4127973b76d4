package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/synquiz/internal/database"
	"github.com/robalobadob/synquiz/internal/quiz"
)

const wordColumns = `id, word, synonyms, difficulty, category, tags, correct_count, incorrect_count, last_reviewed`

// WordRepository is the word store behind the quiz service.
type WordRepository struct {
	db *database.DB
}

// NewWordRepository creates a word repository.
func NewWordRepository(db *database.DB) *WordRepository {
	return &WordRepository{db: db}
}

// FetchWordsBySettings returns every word eligible under settings, ordered
// by headword so the same settings always yield the same pool order.
func (r *WordRepository) FetchWordsBySettings(ctx context.Context, settings quiz.GameSettings) ([]quiz.Word, error) {
	var (
		conds []string
		args  []any
	)
	if settings.Difficulty != "" && settings.Difficulty != quiz.DifficultyMixed {
		conds = append(conds, "difficulty = ?")
		args = append(args, string(settings.Difficulty))
	}
	if len(settings.Categories) > 0 {
		conds = append(conds, "LOWER(category) IN ("+placeholders(len(settings.Categories))+")")
		for _, c := range settings.Categories {
			args = append(args, quiz.Normalize(c))
		}
	}

	query := `SELECT ` + wordColumns + ` FROM words`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY word ASC"
	return r.query(ctx, query, args...)
}

// List returns up to limit words ordered by headword. limit <= 0 means all.
func (r *WordRepository) List(ctx context.Context, limit int) ([]quiz.Word, error) {
	query := `SELECT ` + wordColumns + ` FROM words ORDER BY word ASC`
	if limit > 0 {
		return r.query(ctx, query+` LIMIT ?`, limit)
	}
	return r.query(ctx, query)
}

// GetByID returns a single word.
func (r *WordRepository) GetByID(ctx context.Context, id string) (quiz.Word, error) {
	ws, err := r.query(ctx, `SELECT `+wordColumns+` FROM words WHERE id = ?`, id)
	if err != nil {
		return quiz.Word{}, err
	}
	if len(ws) == 0 {
		return quiz.Word{}, ErrNotFound
	}
	return ws[0], nil
}

func (r *WordRepository) query(ctx context.Context, query string, args ...any) ([]quiz.Word, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var out []quiz.Word
	for rows.Next() {
		var (
			w        quiz.Word
			syns     string
			tags     string
			diff     string
			category sql.NullString
			reviewed sql.NullTime
		)
		if err := rows.Scan(&w.ID, &w.Word, &syns, &diff, &category, &tags,
			&w.CorrectCount, &w.IncorrectCount, &reviewed); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		w.Difficulty = quiz.Difficulty(diff)
		w.Category = category.String
		if w.Synonyms, err = decodeList[string](syns); err != nil {
			return nil, fmt.Errorf("word %s synonyms: %w", w.ID, err)
		}
		if w.Tags, err = decodeList[string](tags); err != nil {
			return nil, fmt.Errorf("word %s tags: %w", w.ID, err)
		}
		if reviewed.Valid {
			t := reviewed.Time
			w.LastReviewed = &t
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate words: %w", err)
	}
	return out, nil
}

// RecordOutcomes applies the counter updates of one completed session in a
// single transaction. Either every outcome is applied or none is.
func (r *WordRepository) RecordOutcomes(ctx context.Context, outcomes []quiz.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, o := range outcomes {
			correct, incorrect := 0, 1
			if o.IsCorrect {
				correct, incorrect = 1, 0
			}
			res, err := tx.ExecContext(ctx,
				`UPDATE words
				 SET correct_count = correct_count + ?, incorrect_count = incorrect_count + ?, last_reviewed = ?
				 WHERE id = ?`,
				correct, incorrect, o.ReviewedAt.UTC(), o.WordID,
			)
			if err != nil {
				return fmt.Errorf("record outcome %s: %w", o.WordID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("record outcome %s: %w", o.WordID, ErrNotFound)
			}
		}
		return nil
	})
}

// Seed inserts ws when the words table is empty and reports how many rows
// were written. A populated table is left alone.
func (r *WordRepository) Seed(ctx context.Context, ws []quiz.Word) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	if n > 0 {
		log.Debug().Int("words", n).Msg("word bank already seeded")
		return 0, nil
	}
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		now := time.Now().UTC()
		for _, w := range ws {
			if w.ID == "" {
				w.ID = uuid.NewString()
			}
			syns, err := encodeList(w.Synonyms)
			if err != nil {
				return err
			}
			tags, err := encodeList(w.Tags)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO words (id, word, synonyms, difficulty, category, tags, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				w.ID, w.Word, syns, string(w.Difficulty), w.Category, tags, now,
			); err != nil {
				return fmt.Errorf("insert word %q: %w", w.Word, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Info().Int("words", len(ws)).Msg("word bank seeded")
	return len(ws), nil
}

// CountByDifficulty returns the number of stored words per difficulty.
func (r *WordRepository) CountByDifficulty(ctx context.Context) (map[quiz.Difficulty]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT difficulty, COUNT(*) FROM words GROUP BY difficulty`)
	if err != nil {
		return nil, fmt.Errorf("count words: %w", err)
	}
	defer rows.Close()
	out := make(map[quiz.Difficulty]int, 3)
	for rows.Next() {
		var (
			d string
			n int
		)
		if err := rows.Scan(&d, &n); err != nil {
			return nil, err
		}
		out[quiz.Difficulty(d)] = n
	}
	return out, rows.Err()
}
