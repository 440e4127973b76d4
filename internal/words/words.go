// internal/words/words.go
//
// Word bank loading for the quiz engine.
//
// Responsibilities:
//   - Parse word bank lines into quiz.Word values.
//   - Load the bank from SEED_FILE, or fall back to the embedded default.
//   - Keep the loaded bank in memory for seeding and diagnostics.
//
// Line format (one word per line, '#' starts a comment):
//
//	word|difficulty|category|syn1,syn2,...|tag1,tag2
//
// The tag column is optional. Words are lowercased; synonyms are trimmed
// and de-duplicated case-insensitively, keeping the first spelling.
//
// Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/robalobadob/synquiz/assets"
	"github.com/robalobadob/synquiz/internal/quiz"
)

// namespace for stable word ids: the same word always gets the same id,
// so reseeding a fresh database keeps ids in saved results meaningful.
var namespace = uuid.MustParse("6f1c7d1e-3b5a-4e55-9a53-2f0c8d6b7a10")

var (
	initOnce   sync.Once
	bank       []quiz.Word
	initialErr error
)

// Init loads the word bank exactly once. An empty seedFile selects the
// embedded default list.
func Init(seedFile string) error {
	initOnce.Do(func() {
		bank, initialErr = Load(seedFile)
	})
	return initialErr
}

// Bank returns the words loaded by Init.
func Bank() []quiz.Word {
	return bank
}

// Load reads and parses a word bank without touching the package state.
func Load(seedFile string) ([]quiz.Word, error) {
	var (
		lines []string
		err   error
	)
	if seedFile != "" {
		lines, err = readSeedFile(seedFile)
	} else {
		lines, err = assets.SeedLines()
	}
	if err != nil {
		return nil, fmt.Errorf("words: %w", err)
	}
	ws, err := Parse(lines)
	if err != nil {
		return nil, err
	}
	if len(ws) == 0 {
		return nil, errors.New("words: word bank is empty")
	}
	return ws, nil
}

// Parse converts word bank lines. Blank lines and comments are skipped;
// a repeated headword is an error.
func Parse(lines []string) ([]quiz.Word, error) {
	out := make([]quiz.Word, 0, len(lines))
	seen := make(map[string]int, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("words: line %d: %w", i+1, err)
		}
		if prev, dup := seen[w.Word]; dup {
			return nil, fmt.Errorf("words: line %d: %q already defined on line %d", i+1, w.Word, prev)
		}
		seen[w.Word] = i + 1
		out = append(out, w)
	}
	return out, nil
}

// ParseLine parses a single word|difficulty|category|synonyms[|tags] line.
func ParseLine(line string) (quiz.Word, error) {
	cols := strings.Split(line, "|")
	if len(cols) < 4 || len(cols) > 5 {
		return quiz.Word{}, fmt.Errorf("want 4 or 5 columns, got %d", len(cols))
	}
	word := quiz.Normalize(cols[0])
	if word == "" {
		return quiz.Word{}, errors.New("empty word")
	}
	diff := quiz.Difficulty(quiz.Normalize(cols[1]))
	switch diff {
	case quiz.DifficultyEasy, quiz.DifficultyMedium, quiz.DifficultyHard:
	default:
		return quiz.Word{}, fmt.Errorf("%s: unknown difficulty %q", word, cols[1])
	}
	syns := splitList(cols[3])
	if len(syns) == 0 {
		return quiz.Word{}, fmt.Errorf("%s: no synonyms", word)
	}
	var tags []string
	if len(cols) == 5 {
		tags = splitList(cols[4])
	}
	return quiz.Word{
		ID:         uuid.NewSHA1(namespace, []byte(word)).String(),
		Word:       word,
		Synonyms:   syns,
		Difficulty: diff,
		Category:   strings.TrimSpace(cols[2]),
		Tags:       tags,
	}, nil
}

// Stats returns the number of loaded words per difficulty.
func Stats() map[quiz.Difficulty]int {
	out := make(map[quiz.Difficulty]int, 3)
	for _, w := range bank {
		out[w.Difficulty]++
	}
	return out
}

// splitList splits a comma list, trimming items and dropping blanks and
// case-insensitive repeats.
func splitList(s string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		key := quiz.Normalize(item)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// readSeedFile loads the raw lines of a word bank file.
func readSeedFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}
