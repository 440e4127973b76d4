package assets

import (
	"strings"
	"testing"
)

func TestSeedLines_KeepsLineNumbers(t *testing.T) {
	raw, err := FS.ReadFile(SeedFile)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

	lines, err := SeedLines()
	if err != nil {
		t.Fatalf("SeedLines() error = %v", err)
	}
	if len(lines) != len(want) {
		t.Fatalf("SeedLines() returned %d lines, file has %d", len(lines), len(want))
	}
	if !strings.HasPrefix(lines[0], "#") {
		t.Errorf("line 1 = %q, want the header comment", lines[0])
	}
	for i := range want {
		if lines[i] != strings.TrimRight(want[i], "\r") {
			t.Fatalf("line %d = %q, want %q", i+1, lines[i], want[i])
		}
	}
}
