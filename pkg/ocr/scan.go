package ocr

import (
	"image"
	"log"
	"strings"
)

// Options control a single receipt scan.
type Options struct {
	Auto      bool       // pick the mode automatically from AutoCandidates
	Mode      Mode       // explicit mode when Auto is false
	Margin    float64    // auto-selection margin
	Corrector *Corrector // nil uses DefaultCorrector
}

// DefaultOptions scans in auto mode with the default margin.
func DefaultOptions() Options {
	return Options{Auto: true, Margin: DefaultMargin}
}

// Result is the full outcome of scanning one receipt image.
type Result struct {
	Outcome   *Outcome
	Fields    Fields
	RawText   string // exactly as recognized; input to field extraction
	CleanText string // normalized + lexicon-corrected; for display and export
}

// ScanImage drives preprocessing, recognition, field extraction and text
// cleanup for one receipt image. Extraction always reads the raw recognized
// text; the cleaned copy is produced for display and export, falling back to
// the raw text when cleaning leaves nothing.
func (r *Runner) ScanImage(img image.Image, opts Options) (*Result, error) {
	var out *Outcome
	var err error
	if opts.Auto {
		out, err = r.ChooseBest(img, opts.Margin)
	} else {
		out, err = r.RunMode(img, opts.Mode)
	}
	if err != nil {
		return nil, err
	}

	corr := opts.Corrector
	if corr == nil {
		corr = DefaultCorrector()
	}
	raw := out.Text
	clean := firstNonBlank(corr.Clean(raw), raw)

	log.Printf("scan: mode=%s conf=%.3f score=%.3f text=%q",
		out.Mode, out.MeanConfidence, out.BlendedScore, snippet(raw, 120))

	return &Result{
		Outcome:   out,
		Fields:    ExtractFields(raw),
		RawText:   raw,
		CleanText: clean,
	}, nil
}

// firstNonBlank is the display-text fallback policy: values are tried in
// order and the first one that is not blank wins.
func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
