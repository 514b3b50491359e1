package ocr

import (
	"regexp"
	"strings"
)

// Normalization rewrites are horizontal-only: they repair punctuation within
// a line and never merge lines or introduce new line breaks.
var (
	timePunctRE  = regexp.MustCompile(`(\d{1,2}):(\d{2});(\d{2})`)
	commaDecRE   = regexp.MustCompile(`(\d)[ \t]*,[ \t]*(\d{2})\b`)
	brokenDecRE  = regexp.MustCompile(`(\d)[ \t]*,\.[ \t]*(\d{2})\b`)
	possessiveRE = regexp.MustCompile(`\b([A-Za-z]+)[ \t]*'[ \t]*s\b`)
	prePunctRE   = regexp.MustCompile(`[ \t]+([,.;:])`)
	hspaceRunRE  = regexp.MustCompile(`[ \t]{2,}`)
)

// NormalizeLight applies deterministic, line-preserving cleanup to raw
// recognized text: time-stamp punctuation repair (17:09;21 -> 17:09:21),
// comma decimal repair (38,90 -> 38.90), broken comma-dot repair
// (11,.10 -> 11.10), possessive repair (McDonald ' s -> McDonald's), removal
// of whitespace before punctuation and collapsing of horizontal whitespace
// runs. Lines that become empty are dropped.
//
// NormalizeLight(NormalizeLight(s)) == NormalizeLight(s) for all s.
func NormalizeLight(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		ln = normalizeLine(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// normalizeLine rewrites one line to a fixed point. A single pass is not
// enough: stripping the space in "17:09 ;21" exposes a time-repair match that
// the first pass ran too early to see, and a cascade like "1:23;45;67" gains
// only one repair per pass because each replacement creates the ':' the next
// match needs. Every rewrite removes a character or turns ';' into ':', so
// the loop terminates.
func normalizeLine(ln string) string {
	for {
		prev := ln
		ln = timePunctRE.ReplaceAllString(ln, "$1:$2:$3")
		ln = commaDecRE.ReplaceAllString(ln, "$1.$2")
		ln = brokenDecRE.ReplaceAllString(ln, "$1.$2")
		ln = possessiveRE.ReplaceAllString(ln, "$1's")
		ln = prePunctRE.ReplaceAllString(ln, "$1")
		ln = hspaceRunRE.ReplaceAllString(ln, " ")
		ln = strings.TrimSpace(ln)
		if ln == prev {
			return ln
		}
	}
}
