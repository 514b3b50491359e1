package ocr

import (
	"regexp"
	"strings"
	"unicode"
)

// Ordered date patterns: day-month-year slash/dash form is checked before the
// ISO year-month-day form. The first match of the first matching pattern wins.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{2}[/-]\d{2}[/-]\d{2,4})\b`),
	regexp.MustCompile(`\b(\d{4}[/-]\d{2}[/-]\d{2})\b`),
}

// moneyRE matches a short digit run with exactly two decimal places. Pure
// integers are deliberately not matched so quantities like "5" never become
// amounts. Input is comma-normalized before matching.
var moneyRE = regexp.MustCompile(`\b(\d{1,6}\.\d{2})\b`)

// timeishRE matches clock stamps like 09.21 or 9:05 so they are never taken
// as prices.
var timeishRE = regexp.MustCompile(`^([01]?\d|2[0-3])[:.][0-5]\d$`)

// TotalLineHints is the ordered priority list of keywords that mark lines
// carrying a receipt's payable amount, most specific first. Tests enumerate
// this list directly; keep the ranking here, not in code order.
var TotalLineHints = []string{
	"ROUNDED TOTAL",
	"TOTAL AMT PAYABLE",
	"AMT PAYABLE",
	"AMOUNT PAYABLE",
	"TOTAL PAYABLE",
	"TOTAL:",
	"TOTAL",
	"SUB TOTAL",
	"SUBTOTAL",
	"CASH",
	"CHANGE",
}

// merchantStopwords disqualify a line from being the merchant name. Matched
// against the uppercased line as substrings.
var merchantStopwords = []string{
	"TOTAL", "SUBTOTAL", "SUB TOTAL", "INVOICE", "TAX", "GST", "THANK",
	"CHANGE", "CASH", "AMOUNT", "PAYABLE", "DATE", "TEL", "FAX", "EMAIL",
}

// ExtractFields runs all field heuristics over raw recognized text. Raw,
// uncorrected text is required here: lexicon correction may distort the
// numeric and line structure these heuristics depend on.
func ExtractFields(text string) Fields {
	return Fields{
		Merchant: GuessMerchant(text),
		Date:     ExtractDate(text),
		Totals:   ExtractTotals(text),
	}
}

// ExtractDate returns the first date-like substring verbatim, preserving the
// original punctuation style, or "" when none is found.
func ExtractDate(text string) string {
	t := strings.ToUpper(text)
	if strings.TrimSpace(t) == "" {
		return ""
	}
	for _, re := range datePatterns {
		if m := re.FindStringSubmatch(t); m != nil {
			return m[1]
		}
	}
	return ""
}

// ExtractTotals extracts total candidates in a receipt-aware way: first from
// hint lines in TotalLineHints priority order, then, only when that yields
// nothing, from a whole-text fallback scan. Comma decimal separators are
// normalized to dots; time-shaped tokens are excluded. The result is
// deduplicated preserving first-seen order and may be empty.
func ExtractTotals(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		lines = []string{strings.TrimSpace(text)}
	}

	var candidates []string
	for _, hint := range TotalLineHints {
		for _, ln := range lines {
			if !strings.Contains(strings.ToUpper(ln), hint) {
				continue
			}
			candidates = append(candidates, moneyTokens(ln)...)
		}
	}
	candidates = dedupKeepOrder(candidates)
	if len(candidates) > 0 {
		return candidates
	}
	return dedupKeepOrder(moneyTokens(text))
}

// moneyTokens returns all money-shaped, non-time-shaped substrings of s after
// comma-to-dot normalization, in scan order.
func moneyTokens(s string) []string {
	norm := strings.ReplaceAll(s, ",", ".")
	var out []string
	for _, m := range moneyRE.FindAllStringSubmatch(norm, -1) {
		if timeishRE.MatchString(m[1]) {
			continue
		}
		out = append(out, m[1])
	}
	return out
}

// GuessMerchant guesses the merchant name from the first lines of the
// original-cased text: the first of the leading 12 non-empty lines that
// contains no receipt-structure stopword and has at least 3 letters,
// truncated to 60 characters. Text without line breaks falls back to its
// first 60 characters when it contains a letter at all.
func GuessMerchant(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if !strings.Contains(text, "\n") {
		t := strings.TrimSpace(text)
		if countLetters(t) == 0 {
			return ""
		}
		return truncateRunes(t, 60)
	}
	lines := nonEmptyLines(text)
	limit := len(lines)
	if limit > 12 {
		limit = 12
	}
	for _, ln := range lines[:limit] {
		up := strings.ToUpper(ln)
		if containsAny(up, merchantStopwords) {
			continue
		}
		if countLetters(ln) >= 3 {
			return truncateRunes(ln, 60)
		}
	}
	return ""
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
