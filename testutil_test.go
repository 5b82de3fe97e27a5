package mucab

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

// testEntry is one row of a synthetic lexicon built directly by a test,
// per spec §8: "Tests should construct dictionaries programmatically,
// run the full compile → load → transliterate pipeline."
type testEntry struct {
	surface string
	ctxID   string
	cost    int16
	reading string
}

// buildDict compiles entries and matrixTriples (each "prev curr cost")
// into a MUCA file under t.TempDir() and opens it, registering cleanup.
func buildDict(t *testing.T, entries []testEntry, matrixTriples []string) *Dictionary {
	t.Helper()

	inputDir := t.TempDir()
	outputDir := t.TempDir()

	var sb strings.Builder
	for _, e := range entries {
		fields := []string{
			e.surface, e.ctxID, e.ctxID, strconv.Itoa(int(e.cost)),
			"*", "*", "*", "*", "*", "*", "*", "*", e.reading,
		}
		sb.WriteString(strings.Join(fields, ","))
		sb.WriteString("\n")
	}
	writeEUCJPFile(t, filepath.Join(inputDir, "lex.csv"), sb.String())

	var mb strings.Builder
	mb.WriteString("left right cost\n") // header line, skipped by the compiler
	for _, triple := range matrixTriples {
		mb.WriteString(triple)
		mb.WriteString("\n")
	}
	if err := os.WriteFile(filepath.Join(inputDir, "matrix.def"), []byte(mb.String()), 0o644); err != nil {
		t.Fatalf("write matrix.def: %v", err)
	}

	outputPath := filepath.Join(outputDir, "mucab.bin")
	if err := Compile(context.Background(), inputDir, outputPath); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	dict, err := Open(outputPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { dict.Close() })
	return dict
}

func writeEUCJPFile(t *testing.T, path, content string) {
	t.Helper()
	enc := japanese.EUCJP.NewEncoder()
	encoded, err := enc.String(content)
	if err != nil {
		t.Fatalf("encode EUC-JP: %v", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mustTransliterate(t *testing.T, dict *Dictionary, text string) string {
	t.Helper()
	out, err := Transliterate(dict, text)
	if err != nil {
		t.Fatalf("Transliterate(%q): %v", text, err)
	}
	return out
}
