// assets/embed.go
//
// Embedded default word bank. The server seeds an empty words table from
// this list unless SEED_FILE points elsewhere.

package assets

import (
	"bufio"
	"embed"
)

//go:embed seed_words.txt
var FS embed.FS

// SeedFile is the name of the embedded word bank inside FS.
const SeedFile = "seed_words.txt"

// SeedLines returns every line of the embedded word bank, comments and
// blank lines included, so parse errors can cite real line numbers.
func SeedLines() ([]string, error) {
	f, err := FS.Open(SeedFile)
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
