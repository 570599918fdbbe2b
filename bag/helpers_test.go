package bag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// writeNDJSON writes one partition file of newline-delimited records,
// optionally gzip-compressed, and returns its path
func writeNDJSON(t *testing.T, dir, name string, lines []string, compress bool) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			t.Fatalf("close %s: %v", path, err)
		}
	}()

	if compress {
		gz := gzip.NewWriter(f)
		for _, ln := range lines {
			if _, err := gz.Write([]byte(ln + "\n")); err != nil {
				t.Fatalf("write %s: %v", path, err)
			}
		}
		if err := gz.Close(); err != nil {
			t.Fatalf("gzip close %s: %v", path, err)
		}
		return path
	}
	for _, ln := range lines {
		if _, err := f.WriteString(ln + "\n"); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return path
}

// inputOf builds an input over explicit partition files
func inputOf(t *testing.T, paths ...string) *Input {
	t.Helper()
	return Files(FormatAuto, paths...)
}

// splitLines partitions lines into k roughly-equal consecutive chunks
func splitLines(lines []string, k int) [][]string {
	out := make([][]string, 0, k)
	per := (len(lines) + k - 1) / k
	for i := 0; i < len(lines); i += per {
		end := min(i+per, len(lines))
		out = append(out, lines[i:end])
	}
	return out
}
