package main

import (
	"flag"
	"log"

	"resit/pkg/ocr"
)

// Builds the correction dictionary from a labeled corpus of box files
// (SROIE v2 train/box layout). Output is the "term frequency" file consumed
// by the runtime corrector.
func main() {
	boxDir := flag.String("box_dir", "data/sroie_v2/train/box", "directory of labeled box files")
	out := flag.String("out", ocr.DefaultLexiconPath, "output dictionary path")
	minFreq := flag.Int("min_freq", 2, "minimum frequency to keep a token")
	maxWords := flag.Int("max_words", 50000, "max tokens to write (most frequent first)")
	flag.Parse()

	entries, err := ocr.BuildLexicon(*boxDir, *minFreq, *maxWords)
	if err != nil {
		log.Fatalf("lexicon build failed: %v", err)
	}
	if err := ocr.WriteDictionary(*out, entries); err != nil {
		log.Fatalf("write dictionary: %v", err)
	}
	log.Printf("wrote %d terms to %s (min_freq=%d, cap=%d)", len(entries), *out, *minFreq, *maxWords)
}
