package ocr

import (
	"fmt"
	"image"
)

// Mode identifies a preprocessing variant applied to the image before
// recognition. The set is closed: the transform layer switches over it
// exhaustively and an unrecognized value is an input-contract violation.
type Mode int

const (
	ModeNone Mode = iota
	ModeDenoise
	ModeContrastBoost
	ModeOtsu
	ModeAdaptive
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeDenoise:
		return "denoise"
	case ModeContrastBoost:
		return "contrast_boost"
	case ModeOtsu:
		return "otsu"
	case ModeAdaptive:
		return "adaptive"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a mode tag to its Mode value. "contrast" is accepted as a
// shorthand for "contrast_boost".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "none", "":
		return ModeNone, nil
	case "denoise":
		return ModeDenoise, nil
	case "contrast", "contrast_boost":
		return ModeContrastBoost, nil
	case "otsu":
		return ModeOtsu, nil
	case "adaptive":
		return ModeAdaptive, nil
	}
	return ModeNone, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Token is one recognized text fragment. Tokens are produced only by a
// Recognizer and are line-level for this document type.
type Token struct {
	Text       string
	Confidence float64       // 0..1
	Region     []image.Point // polygon around the fragment, reading order
}

// Outcome is the result of evaluating one preprocessing mode. It is built
// once per pass and not mutated afterwards.
type Outcome struct {
	Mode           Mode
	Processed      image.Image
	Tokens         []Token
	Text           string // newline-joined fragment texts, token order
	MeanConfidence float64
	QualityScore   float64
	BlendedScore   float64
}

// Fields are the structured values extracted from raw receipt text. Empty
// string means the field was not found.
type Fields struct {
	Merchant string   `json:"merchant"`
	Date     string   `json:"date"`
	Totals   []string `json:"totals"`
}
