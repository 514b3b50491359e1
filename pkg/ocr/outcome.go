package ocr

import (
	"fmt"
	"image"
	"strings"
)

// Runner evaluates preprocessing passes against a single recognizer. The
// zero value is not usable; Rec must be set.
type Runner struct {
	Rec Recognizer
}

// RunMode evaluates one preprocessing mode: transform the image, recognize
// it, assemble the text and score the pass. Collaborator failures are
// returned as-is; retry and fallback policy belongs to the caller.
func (r *Runner) RunMode(img image.Image, mode Mode) (*Outcome, error) {
	processed, err := Preprocess(img, mode)
	if err != nil {
		return nil, err
	}
	tokens, err := r.Rec.Recognize(processed)
	if err != nil {
		return nil, fmt.Errorf("recognize (%s): %w", mode, err)
	}
	parts := make([]string, 0, len(tokens))
	sum := 0.0
	for _, t := range tokens {
		if t.Text != "" {
			parts = append(parts, t.Text)
		}
		sum += t.Confidence
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	conf := 0.0
	if len(tokens) > 0 {
		conf = sum / float64(len(tokens))
	}
	return &Outcome{
		Mode:           mode,
		Processed:      processed,
		Tokens:         tokens,
		Text:           text,
		MeanConfidence: conf,
		QualityScore:   TextQuality(text),
		BlendedScore:   BlendedScore(conf, text),
	}, nil
}
