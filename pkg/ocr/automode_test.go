package ocr

import (
	"errors"
	"image"
	"testing"
)

// staticRecognizer returns the same tokens for every image, or a fixed error.
type staticRecognizer struct {
	tokens []Token
	err    error
}

func (s *staticRecognizer) Recognize(image.Image) ([]Token, error) {
	return s.tokens, s.err
}

func testImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7 % 251)
	}
	return img
}

func outcomeWithScore(m Mode, score float64) *Outcome {
	return &Outcome{Mode: m, BlendedScore: score}
}

func TestSelectBestBaselineWinsTies(t *testing.T) {
	outcomes := []*Outcome{
		outcomeWithScore(ModeNone, 0.5),
		outcomeWithScore(ModeContrastBoost, 0.5),
		outcomeWithScore(ModeDenoise, 0.5),
	}
	best, err := selectBest(outcomes, make([]error, 3), DefaultMargin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Mode != ModeNone {
		t.Fatalf("tie must keep the baseline, got %s", best.Mode)
	}
}

func TestSelectBestMargin(t *testing.T) {
	// within margin: improvement of 0.009 is noise, baseline stays
	outcomes := []*Outcome{
		outcomeWithScore(ModeNone, 0.5),
		outcomeWithScore(ModeContrastBoost, 0.509),
	}
	best, err := selectBest(outcomes, make([]error, 2), 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Mode != ModeNone {
		t.Fatalf("sub-margin improvement must not switch mode, got %s", best.Mode)
	}

	// beyond margin: the candidate wins
	outcomes[1] = outcomeWithScore(ModeContrastBoost, 0.52)
	best, err = selectBest(outcomes, make([]error, 2), 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Mode != ModeContrastBoost {
		t.Fatalf("candidate above margin must win, got %s", best.Mode)
	}
}

func TestSelectBestSequentialReplacement(t *testing.T) {
	// each candidate must beat the current best, not the baseline
	outcomes := []*Outcome{
		outcomeWithScore(ModeNone, 0.5),
		outcomeWithScore(ModeContrastBoost, 0.52),
		outcomeWithScore(ModeDenoise, 0.525),
	}
	best, err := selectBest(outcomes, make([]error, 3), 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Mode != ModeContrastBoost {
		t.Fatalf("0.525 does not beat 0.52 by margin, got %s", best.Mode)
	}
}

func TestSelectBestSkipsFailedCandidate(t *testing.T) {
	outcomes := []*Outcome{
		outcomeWithScore(ModeNone, 0.5),
		nil,
		outcomeWithScore(ModeDenoise, 0.9),
	}
	errs := []error{nil, errors.New("engine crashed"), nil}
	best, err := selectBest(outcomes, errs, 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Mode != ModeDenoise {
		t.Fatalf("failed candidate must be skipped, got %s", best.Mode)
	}
}

func TestSelectBestBaselineFailure(t *testing.T) {
	outcomes := []*Outcome{nil, outcomeWithScore(ModeContrastBoost, 0.9)}
	errs := []error{errors.New("engine crashed"), nil}
	if _, err := selectBest(outcomes, errs, 0.01); err == nil {
		t.Fatalf("baseline failure must fail selection")
	}
}

func TestChooseBestDeterministicOnEqualScores(t *testing.T) {
	r := &Runner{Rec: &staticRecognizer{tokens: []Token{{Text: "ACME STORE", Confidence: 0.9}}}}
	img := testImage()
	for i := 0; i < 5; i++ {
		best, err := r.ChooseBest(img, DefaultMargin)
		if err != nil {
			t.Fatalf("ChooseBest failed: %v", err)
		}
		if best.Mode != ModeNone {
			t.Fatalf("equal scores must keep the baseline, got %s", best.Mode)
		}
	}
}

func TestChooseBestRecognizerError(t *testing.T) {
	r := &Runner{Rec: &staticRecognizer{err: errors.New("tesseract unavailable")}}
	if _, err := r.ChooseBest(testImage(), DefaultMargin); err == nil {
		t.Fatalf("expected error when every candidate fails")
	}
}

func TestAutoCandidates(t *testing.T) {
	c := AutoCandidates()
	if len(c) == 0 || c[0] != ModeNone {
		t.Fatalf("baseline must be the first candidate, got %v", c)
	}
	for _, m := range c {
		if m == ModeOtsu || m == ModeAdaptive {
			t.Fatalf("thresholding modes must not be auto candidates, got %v", c)
		}
	}
}
