package ocr

import (
	"image"
	"log"
	"sync"
)

// DefaultMargin is the blended-score improvement a candidate mode must show
// over the current best before it is selected. Keeps mode choice stable
// against noise-level score differences.
const DefaultMargin = 0.01

// AutoCandidates returns the whitelist of modes tried by auto selection, in
// evaluation order with the baseline first. Otsu and adaptive thresholding
// are excluded: they tend to destroy faint thermal-paper text. They stay
// available to callers that request them explicitly.
func AutoCandidates() []Mode {
	return []Mode{ModeNone, ModeContrastBoost, ModeDenoise}
}

// ChooseBest evaluates every auto candidate and returns the winner. The
// comparison is baseline-biased and order-stable: a later candidate must
// exceed the current best by more than margin, so ties always stay with the
// earlier result. Candidates run concurrently over the same immutable input
// but are reduced in fixed order after all complete, so the selection is
// identical to sequential evaluation.
//
// A failed non-baseline candidate is skipped; only a baseline failure makes
// selection fail.
func (r *Runner) ChooseBest(img image.Image, margin float64) (*Outcome, error) {
	if margin < 0 {
		margin = 0
	}
	candidates := AutoCandidates()
	outcomes := make([]*Outcome, len(candidates))
	errs := make([]error, len(candidates))
	var wg sync.WaitGroup
	for i, m := range candidates {
		wg.Add(1)
		go func(i int, m Mode) {
			defer wg.Done()
			outcomes[i], errs[i] = r.RunMode(img, m)
		}(i, m)
	}
	wg.Wait()

	return selectBest(outcomes, errs, margin)
}

// selectBest reduces candidate outcomes in their fixed evaluation order. The
// first entry is the baseline: its error fails the selection, while a failed
// later candidate is only logged and skipped.
func selectBest(outcomes []*Outcome, errs []error, margin float64) (*Outcome, error) {
	if errs[0] != nil {
		return nil, errs[0]
	}
	best := outcomes[0]
	for i := 1; i < len(outcomes); i++ {
		if errs[i] != nil {
			log.Printf("auto mode: candidate %d failed: %v", i, errs[i])
			continue
		}
		if outcomes[i].BlendedScore > best.BlendedScore+margin {
			best = outcomes[i]
		}
	}
	return best, nil
}
