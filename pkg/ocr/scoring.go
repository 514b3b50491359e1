package ocr

import (
	"regexp"
	"strings"
)

var (
	scoringWsRE    = regexp.MustCompile(`\s+`)
	scoringStripRE = regexp.MustCompile(`[^A-Z0-9 ]`)
)

// normalizeForScoring uppercases, collapses whitespace runs to single spaces
// and strips everything outside [A-Z0-9 ]. Shared by quality scoring and
// character-accuracy evaluation.
func normalizeForScoring(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = scoringWsRE.ReplaceAllString(s, " ")
	return scoringStripRE.ReplaceAllString(s, "")
}

// TextQuality scores recognized text by alphanumeric density plus a capped
// length bonus. Density rewards clean recognition, the cap keeps long garbage
// from dominating. Empty normalized text scores 0.
func TextQuality(text string) float64 {
	t := normalizeForScoring(text)
	if t == "" {
		return 0
	}
	alnum := 0
	for i := 0; i < len(t); i++ {
		c := t[i]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			alnum++
		}
	}
	length := len(t)
	capped := length
	if capped > 80 {
		capped = 80
	}
	return float64(alnum)/float64(length) + float64(capped)/80.0
}

// BlendedScore ranks a preprocessing pass by mean recognition confidence
// blended with text quality.
func BlendedScore(meanConf float64, text string) float64 {
	return 0.6*meanConf + 0.4*TextQuality(text)
}

// CharAccuracy compares a prediction against ground truth on
// scoring-normalized text, penalizing length mismatch. Used by the eval CLI.
func CharAccuracy(pred, gt string) float64 {
	p := normalizeForScoring(pred)
	g := normalizeForScoring(gt)
	if len(g) == 0 {
		if len(p) == 0 {
			return 1
		}
		return 0
	}
	m := len(p)
	if len(g) < m {
		m = len(g)
	}
	correct := 0
	for i := 0; i < m; i++ {
		if p[i] == g[i] {
			correct++
		}
	}
	diff := len(p) - len(g)
	if diff < 0 {
		diff = -diff
	}
	correct -= diff
	if correct < 0 {
		correct = 0
	}
	return float64(correct) / float64(len(g))
}
