package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Recognizer converts an image into positioned text fragments with
// confidence scores. Implementations may be slow and may fail; an empty
// result means zero tokens and is not an error.
type Recognizer interface {
	Recognize(img image.Image) ([]Token, error)
}

// TesseractRecognizer runs a local Tesseract engine via gosseract, one
// client per call (gosseract clients are not safe for reuse across
// goroutines).
type TesseractRecognizer struct {
	Language string // tesseract language pack, default "eng"
}

func (r *TesseractRecognizer) Recognize(img image.Image) ([]Token, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	client := gosseract.NewClient()
	defer client.Close()
	lang := r.Language
	if lang == "" {
		lang = "eng"
	}
	_ = client.SetLanguage(lang)
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	tokens := make([]Token, 0, len(boxes))
	for _, b := range boxes {
		conf := b.Confidence / 100
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		tokens = append(tokens, Token{
			Text:       b.Word,
			Confidence: conf,
			Region: []image.Point{
				b.Box.Min,
				{X: b.Box.Max.X, Y: b.Box.Min.Y},
				b.Box.Max,
				{X: b.Box.Min.X, Y: b.Box.Max.Y},
			},
		})
	}
	return tokens, nil
}
