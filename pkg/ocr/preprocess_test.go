package ocr

import (
	"errors"
	"image"
	"testing"
)

func TestPreprocessAllModes(t *testing.T) {
	img := testImage()
	for _, m := range []Mode{ModeNone, ModeDenoise, ModeContrastBoost, ModeOtsu, ModeAdaptive} {
		out, err := Preprocess(img, m)
		if err != nil {
			t.Fatalf("Preprocess(%s) failed: %v", m, err)
		}
		if out == nil {
			t.Fatalf("Preprocess(%s) returned nil image", m)
		}
		if out.Bounds().Dx() != img.Bounds().Dx() || out.Bounds().Dy() != img.Bounds().Dy() {
			t.Fatalf("Preprocess(%s) changed dimensions: %v -> %v", m, img.Bounds(), out.Bounds())
		}
	}
}

func TestPreprocessUnknownMode(t *testing.T) {
	if _, err := Preprocess(testImage(), Mode(99)); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestPreprocessDoesNotMutateInput(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 13 % 251)
	}
	before := make([]uint8, len(img.Pix))
	copy(before, img.Pix)
	if _, err := Preprocess(img, ModeAdaptive); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	for i := range before {
		if img.Pix[i] != before[i] {
			t.Fatalf("input image mutated at pixel %d", i)
		}
	}
}

func TestBinarizeSplitsAtThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.Pix[0] = 10
	img.Pix[1] = 200
	out := binarize(img, 128)
	r0, _, _, _ := out.At(0, 0).RGBA()
	r1, _, _, _ := out.At(1, 0).RGBA()
	if r0 != 0 {
		t.Fatalf("dark pixel must binarize to black, got %d", r0)
	}
	if uint8(r1>>8) != 255 {
		t.Fatalf("light pixel must binarize to white, got %d", r1>>8)
	}
}

func TestOtsuLevelSeparatesBimodalImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		if i%2 == 0 {
			img.Pix[i] = 20
		} else {
			img.Pix[i] = 220
		}
	}
	level := otsuLevel(img)
	if level < 20 || level >= 220 {
		t.Fatalf("otsu level %d does not separate the two pixel classes", level)
	}
}
