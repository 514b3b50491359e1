package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"resit/pkg/ocr"

	"github.com/disintegration/imaging"
)

// Single-image debug CLI: preprocess + recognize one receipt, print the
// chosen mode, the extracted fields and (optionally) a quick accuracy score
// against a known ground-truth string.
func main() {
	imagePath := flag.String("image", "", "path to input receipt image (required)")
	modeTag := flag.String("mode", "auto", "preprocessing mode: auto|none|denoise|contrast_boost|otsu|adaptive")
	margin := flag.Float64("margin", ocr.DefaultMargin, "auto mode switch margin")
	gt := flag.String("gt", "", "ground truth text for a quick char-accuracy eval")
	save := flag.Bool("save", false, "save the processed image next to outputs/")
	flag.Parse()

	if *imagePath == "" {
		flag.Usage()
		os.Exit(2)
	}
	img, err := imaging.Open(*imagePath)
	if err != nil {
		log.Fatalf("failed to read image %s: %v", *imagePath, err)
	}

	opts := ocr.Options{Auto: true, Margin: *margin}
	if *modeTag != "auto" {
		mode, err := ocr.ParseMode(*modeTag)
		if err != nil {
			log.Fatalf("%v", err)
		}
		opts.Auto = false
		opts.Mode = mode
	}

	runner := &ocr.Runner{Rec: &ocr.TesseractRecognizer{}}
	res, err := runner.ScanImage(img, opts)
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}
	out := res.Outcome

	fmt.Println("=== TOKENS (top 5 by confidence) ===")
	tokens := append([]ocr.Token(nil), out.Tokens...)
	sort.SliceStable(tokens, func(i, j int) bool { return tokens[i].Confidence > tokens[j].Confidence })
	if len(tokens) == 0 {
		fmt.Println("no text detected")
	}
	for i, t := range tokens {
		if i >= 5 {
			break
		}
		fmt.Printf("%d. conf=%.3f text=%s\n", i+1, t.Confidence, t.Text)
	}

	fmt.Println("\n=== RESULT ===")
	fmt.Printf("chosen_mode=%s\n", out.Mode)
	fmt.Printf("mean_confidence=%.3f\n", out.MeanConfidence)
	fmt.Printf("blended_score=%.3f\n", out.BlendedScore)
	fmt.Printf("merchant=%s\n", res.Fields.Merchant)
	fmt.Printf("date=%s\n", res.Fields.Date)
	fmt.Printf("totals=%s\n", strings.Join(res.Fields.Totals, ", "))

	if *gt != "" {
		fmt.Println("\n=== QUICK EVAL ===")
		fmt.Printf("char_accuracy=%.3f\n", ocr.CharAccuracy(res.RawText, *gt))
	}

	if *save {
		outDir := "outputs"
		if err := os.MkdirAll(outDir, 0755); err != nil {
			log.Fatalf("mkdir %s: %v", outDir, err)
		}
		base := strings.TrimSuffix(filepath.Base(*imagePath), filepath.Ext(*imagePath))
		outPath := filepath.Join(outDir, base+"_processed.png")
		if err := imaging.Save(out.Processed, outPath); err != nil {
			log.Fatalf("save processed image: %v", err)
		}
		fmt.Printf("\nsaved processed image: %s\n", outPath)
	}
}
