package ocr

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Offline corpus mining for the correction dictionary. Runs as a batch
// utility (scripts/build_lexicon), not during scanning; the "term frequency"
// file format it produces is the runtime contract consumed by LoadLexicon.

// readBoxTranscriptions extracts the transcription column from a SROIE-style
// box file. Each line is "x1,y1,x2,y2,x3,y3,x4,y4,transcription"; the
// transcription itself may contain commas, so everything past the eighth
// comma belongs to it.
func readBoxTranscriptions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 9 {
			continue
		}
		if t := strings.TrimSpace(strings.Join(parts[8:], ",")); t != "" {
			out = append(out, t)
		}
	}
	return out, sc.Err()
}

// BuildLexicon mines a frequency dictionary from a directory of box files:
// lowercase alphabetic tokens of length >= 3, kept at or above minFreq,
// capped to the maxWords most frequent. Sorted by descending frequency, term
// ascending on ties so the output is deterministic.
func BuildLexicon(boxDir string, minFreq int, maxWords int) ([]Entry, error) {
	files, err := filepath.Glob(filepath.Join(boxDir, "*.txt"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .txt box files in %s", boxDir)
	}
	sort.Strings(files)

	counts := make(map[string]int64, 1<<14)
	for i, f := range files {
		lines, err := readBoxTranscriptions(f)
		if err != nil {
			return nil, fmt.Errorf("read box file %s: %w", f, err)
		}
		for _, ln := range lines {
			for _, w := range wordTokenRE.FindAllString(ln, -1) {
				counts[strings.ToLower(w)]++
			}
		}
		if (i+1)%200 == 0 {
			log.Printf("lexicon build: processed %d/%d box files", i+1, len(files))
		}
	}

	entries := make([]Entry, 0, len(counts))
	for term, c := range counts {
		if c >= int64(minFreq) {
			entries = append(entries, Entry{Term: term, Count: c})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Term < entries[j].Term
	})
	if maxWords > 0 && len(entries) > maxWords {
		entries = entries[:maxWords]
	}
	return entries, nil
}

// WriteDictionary persists entries in the "term frequency" line format.
func WriteDictionary(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s %d\n", e.Term, e.Count); err != nil {
			return err
		}
	}
	return w.Flush()
}
