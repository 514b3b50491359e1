package ocr

import (
	"errors"
	"testing"
)

func TestParseModeRoundTrip(t *testing.T) {
	for _, m := range []Mode{ModeNone, ModeDenoise, ModeContrastBoost, ModeOtsu, ModeAdaptive} {
		got, err := ParseMode(m.String())
		if err != nil {
			t.Fatalf("ParseMode(%q) failed: %v", m.String(), err)
		}
		if got != m {
			t.Fatalf("ParseMode(%q) = %v, want %v", m.String(), got, m)
		}
	}
}

func TestParseModeAliases(t *testing.T) {
	if m, err := ParseMode("contrast"); err != nil || m != ModeContrastBoost {
		t.Fatalf("ParseMode(contrast) = %v, %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeNone {
		t.Fatalf("ParseMode(empty) = %v, %v", m, err)
	}
}

func TestParseModeUnknown(t *testing.T) {
	if _, err := ParseMode("sepia"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestModeStringUnknown(t *testing.T) {
	if s := Mode(42).String(); s != "mode(42)" {
		t.Fatalf("unknown mode string = %q", s)
	}
}
