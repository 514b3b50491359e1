package ocr

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/agext/levenshtein"
)

// DefaultLexiconPath is where the mined dictionary is looked up unless
// LEXICON_PATH overrides it.
const DefaultLexiconPath = "assets/lexicon_dictionary.txt"

// DefaultMaxEditDistance bounds how far a correction may stray from the
// recognized token.
const DefaultMaxEditDistance = 2

// Entry is one lexicon term with its corpus frequency.
type Entry struct {
	Term  string
	Count int64
}

// Lexicon is a frequency-ranked dictionary of known receipt words, loaded
// once and read-only afterwards.
type Lexicon struct {
	entries []Entry
}

var lexTermRE = regexp.MustCompile(`^[a-z]+$`)

// LoadLexicon reads a dictionary file with one "term frequency" pair per
// line. Malformed lines, non-alphabetic terms and non-positive frequencies
// are skipped rather than failing the load.
func LoadLexicon(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()
	lex := &Lexicon{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}
		term := parts[0]
		if !lexTermRE.MatchString(term) {
			continue
		}
		count, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil || count < 1 {
			continue
		}
		lex.entries = append(lex.entries, Entry{Term: term, Count: count})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return lex, nil
}

// Len returns the number of loaded entries.
func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Lookup returns the best dictionary term within maxDist edits of word
// (expected lowercase). Nearer terms win; frequency breaks distance ties.
func (l *Lexicon) Lookup(word string, maxDist int) (string, bool) {
	if l == nil || word == "" {
		return "", false
	}
	bestDist := maxDist + 1
	var best Entry
	for _, e := range l.entries {
		if e.Term == word {
			return word, true
		}
		dl := len(e.Term) - len(word)
		if dl < 0 {
			dl = -dl
		}
		if dl > maxDist {
			continue
		}
		d := levenshtein.Distance(word, e.Term, nil)
		if d < bestDist || (d == bestDist && e.Count > best.Count) {
			bestDist = d
			best = e
		}
	}
	if bestDist > maxDist {
		return "", false
	}
	return best.Term, true
}

// wordTokenRE selects the tokens eligible for correction: alphabetic runs of
// length >= 3. Numbers and currency stay untouched by construction.
var wordTokenRE = regexp.MustCompile(`[A-Za-z]{3,}`)

// Corrector layers lexicon-based spelling correction on top of
// NormalizeLight. It is used for the display/export copy of the text only,
// never for field extraction. A nil lexicon disables correction.
type Corrector struct {
	Lex     *Lexicon
	MaxDist int
}

// NewCorrector returns a corrector over lex with the default edit-distance
// bound. lex may be nil.
func NewCorrector(lex *Lexicon) *Corrector {
	return &Corrector{Lex: lex, MaxDist: DefaultMaxEditDistance}
}

// Clean normalizes text and corrects word tokens against the lexicon. When
// no dictionary is loaded it degrades to normalization only; it never fails.
func (c *Corrector) Clean(text string) string {
	t := NormalizeLight(text)
	if c == nil || c.Lex.Len() == 0 {
		return t
	}
	maxDist := c.MaxDist
	if maxDist <= 0 {
		maxDist = DefaultMaxEditDistance
	}
	return wordTokenRE.ReplaceAllStringFunc(t, func(w string) string {
		// All-caps tokens are acronyms or registration codes (SDN, BHD, GST);
		// tokens under 4 runes are too short to correct safely.
		if w == strings.ToUpper(w) {
			return w
		}
		if len(w) < 4 {
			return w
		}
		term, ok := c.Lex.Lookup(strings.ToLower(w), maxDist)
		if !ok {
			return w
		}
		return applyCasePattern(w, term)
	})
}

// applyCasePattern re-applies the original token's case shape onto the
// corrected term.
func applyCasePattern(original, corrected string) string {
	if corrected == "" {
		return original
	}
	if original == strings.ToUpper(original) {
		return strings.ToUpper(corrected)
	}
	r := []rune(original)
	if unicode.IsUpper(r[0]) {
		return strings.ToUpper(corrected[:1]) + corrected[1:]
	}
	return corrected
}

var (
	defaultCorrectorOnce sync.Once
	defaultCorrector     *Corrector
)

// DefaultCorrector returns the process-wide corrector, loading the
// dictionary at most once even under concurrent first use. A missing or
// unreadable dictionary yields a normalize-only corrector.
func DefaultCorrector() *Corrector {
	defaultCorrectorOnce.Do(func() {
		path := os.Getenv("LEXICON_PATH")
		if path == "" {
			path = DefaultLexiconPath
		}
		lex, err := LoadLexicon(path)
		if err != nil {
			log.Printf("lexicon unavailable (%v); correction disabled", err)
			defaultCorrector = NewCorrector(nil)
			return
		}
		log.Printf("lexicon loaded: %d terms from %s", lex.Len(), path)
		defaultCorrector = NewCorrector(lex)
	})
	return defaultCorrector
}
