package ocr

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempLexicon(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp lexicon: %v", err)
	}
	return path
}

func TestLoadLexiconSkipsMalformedLines(t *testing.T) {
	path := writeTempLexicon(t, `coffee 120
latte 45

badline
MIXED 3
tea 0
milk notanumber
`)
	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon failed: %v", err)
	}
	if lex.Len() != 2 {
		t.Fatalf("expected 2 valid entries, got %d", lex.Len())
	}
}

func TestLoadLexiconMissingFile(t *testing.T) {
	if _, err := LoadLexicon(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatalf("expected error for missing dictionary")
	}
}

func TestLexiconLookup(t *testing.T) {
	path := writeTempLexicon(t, "coffee 120\ncost 10\ncoat 99\n")
	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon failed: %v", err)
	}

	if term, ok := lex.Lookup("coffee", DefaultMaxEditDistance); !ok || term != "coffee" {
		t.Fatalf("exact lookup = %q %v", term, ok)
	}
	if term, ok := lex.Lookup("coffe", DefaultMaxEditDistance); !ok || term != "coffee" {
		t.Fatalf("near lookup = %q %v", term, ok)
	}
	if _, ok := lex.Lookup("zzzzzz", DefaultMaxEditDistance); ok {
		t.Fatalf("far word must not match")
	}
	// cost and coat are both one edit from cast; the more frequent term wins
	if term, ok := lex.Lookup("cast", DefaultMaxEditDistance); !ok || term != "coat" {
		t.Fatalf("tie-break lookup = %q %v, want coat", term, ok)
	}
	if _, ok := (*Lexicon)(nil).Lookup("coffee", DefaultMaxEditDistance); ok {
		t.Fatalf("nil lexicon must never match")
	}
}

func TestCorrectorClean(t *testing.T) {
	path := writeTempLexicon(t, "coffee 120\nstore 80\n")
	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon failed: %v", err)
	}
	c := NewCorrector(lex)

	// corrected with the original case shape kept
	if got := c.Clean("Coffe 3.80"); got != "Coffee 3.80" {
		t.Fatalf("Clean = %q, want Coffee 3.80", got)
	}
	// all-caps tokens are left alone even when a correction exists
	if got := c.Clean("COFFE 3.80"); got != "COFFE 3.80" {
		t.Fatalf("all-caps guard failed: %q", got)
	}
	// tokens under 4 runes are left alone
	if got := c.Clean("teh tarik"); got != "teh tarik" {
		t.Fatalf("short-token guard failed: %q", got)
	}
	// numbers never pass through the lexicon
	if got := c.Clean("38,90"); got != "38.90" {
		t.Fatalf("numeric text = %q, want 38.90", got)
	}
}

func TestCorrectorWithoutLexicon(t *testing.T) {
	c := NewCorrector(nil)
	if got := c.Clean("TOTAL 38,90"); got != "TOTAL 38.90" {
		t.Fatalf("normalize-only corrector = %q", got)
	}
}

func TestDefaultCorrectorNeverNil(t *testing.T) {
	a := DefaultCorrector()
	b := DefaultCorrector()
	if a == nil || a != b {
		t.Fatalf("DefaultCorrector must return one shared instance")
	}
	if got := a.Clean("hello ,"); got == "" {
		t.Fatalf("default corrector must still normalize")
	}
}

func TestApplyCasePattern(t *testing.T) {
	cases := []struct {
		original, corrected, want string
	}{
		{"coffe", "coffee", "coffee"},
		{"Coffe", "coffee", "Coffee"},
		{"COFFE", "coffee", "COFFEE"},
		{"word", "", "word"},
	}
	for _, c := range cases {
		if got := applyCasePattern(c.original, c.corrected); got != c.want {
			t.Fatalf("applyCasePattern(%q, %q) = %q, want %q", c.original, c.corrected, got, c.want)
		}
	}
}

func TestBuildLexicon(t *testing.T) {
	dir := t.TempDir()
	box1 := "72,25,326,64,72,64,326,25,COFFEE BEAN HOUSE\n10,10,20,20,10,20,20,10,COFFEE 3.80\n"
	box2 := "72,25,326,64,72,64,326,25,COFFEE TO GO\nshort,line\n"
	if err := os.WriteFile(filepath.Join(dir, "001.txt"), []byte(box1), 0644); err != nil {
		t.Fatalf("write box file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "002.txt"), []byte(box2), 0644); err != nil {
		t.Fatalf("write box file: %v", err)
	}

	entries, err := BuildLexicon(dir, 2, 0)
	if err != nil {
		t.Fatalf("BuildLexicon failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Term != "coffee" || entries[0].Count != 3 {
		t.Fatalf("entries = %+v, want coffee x3 only", entries)
	}

	// round trip through the dictionary file format
	out := filepath.Join(dir, "dict", "lexicon.txt")
	if err := WriteDictionary(out, entries); err != nil {
		t.Fatalf("WriteDictionary failed: %v", err)
	}
	lex, err := LoadLexicon(out)
	if err != nil {
		t.Fatalf("LoadLexicon failed: %v", err)
	}
	if lex.Len() != 1 {
		t.Fatalf("round-tripped lexicon has %d entries, want 1", lex.Len())
	}
}

func TestBuildLexiconEmptyDir(t *testing.T) {
	if _, err := BuildLexicon(t.TempDir(), 1, 0); err == nil {
		t.Fatalf("expected error for directory without box files")
	}
}
