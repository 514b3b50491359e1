package ocr

import (
	"reflect"
	"testing"
)

const sampleReceipt = `ACME STORE SDN BHD
123 JALAN TEST, KUALA LUMPUR
GST REG: 001234
DATE: 19/02/2026 TIME 09.21
SUBTOTAL 42.00
TOTAL 45.50
ROUNDED TOTAL 45.50
CASH 50.00
CHANGE 4.50`

func TestExtractDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"DATE: 19/02/2026", "19/02/2026"},
		{"date 19-02-26 thank you", "19-02-26"},
		{"issued 2026-02-19", "2026-02-19"},
		// day-month form wins over ISO even when ISO comes first in the text
		{"2026-02-19 printed 19/02/2026", "19/02/2026"},
		{"no digits here", ""},
		{"", ""},
		{"   \n  ", ""},
	}
	for _, c := range cases {
		if got := ExtractDate(c.in); got != c.want {
			t.Fatalf("ExtractDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExtractTotalsHintPriority(t *testing.T) {
	got := ExtractTotals(sampleReceipt)
	if len(got) == 0 {
		t.Fatalf("expected totals from sample receipt, got none")
	}
	// ROUNDED TOTAL is the most specific hint, so its amount must come first.
	if got[0] != "45.50" {
		t.Fatalf("expected rounded total 45.50 first, got %v", got)
	}
	// CHANGE 4.50 is excluded: 4.50 is time-shaped (4:50).
	want := []string{"45.50", "42.00", "50.00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractTotals = %v, want %v", got, want)
	}
}

func TestExtractTotalsCommaDecimal(t *testing.T) {
	got := ExtractTotals("TOTAL 38,90")
	if len(got) != 1 || got[0] != "38.90" {
		t.Fatalf("expected comma decimal normalized to 38.90, got %v", got)
	}
}

func TestExtractTotalsFallbackScan(t *testing.T) {
	// no hint keywords at all: fall back to scanning the whole text
	got := ExtractTotals("LUNCH SET 32.30\nCOFFEE 3.80")
	want := []string{"32.30", "3.80"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("fallback totals = %v, want %v", got, want)
	}
}

func TestExtractTotalsTimeShapeExcluded(t *testing.T) {
	if got := ExtractTotals("TOTAL 09.21"); len(got) != 0 {
		t.Fatalf("time-shaped token must not become a total, got %v", got)
	}
	if got := ExtractTotals("printed 12:45 at register 2"); len(got) != 0 {
		t.Fatalf("clock stamp must not become a total, got %v", got)
	}
}

func TestExtractTotalsDedup(t *testing.T) {
	got := ExtractTotals("TOTAL 45.50\nTOTAL 45.50")
	if len(got) != 1 || got[0] != "45.50" {
		t.Fatalf("expected single deduplicated total, got %v", got)
	}
}

func TestExtractTotalsEmpty(t *testing.T) {
	if got := ExtractTotals(""); got != nil {
		t.Fatalf("expected nil for empty text, got %v", got)
	}
	if got := ExtractTotals("  \n "); got != nil {
		t.Fatalf("expected nil for blank text, got %v", got)
	}
}

func TestGuessMerchant(t *testing.T) {
	if got := GuessMerchant(sampleReceipt); got != "ACME STORE SDN BHD" {
		t.Fatalf("GuessMerchant = %q, want ACME STORE SDN BHD", got)
	}
}

func TestGuessMerchantSkipsStopwordLines(t *testing.T) {
	text := "GST REG 001234\n0123456789\nACME MART\nTOTAL 10.00"
	if got := GuessMerchant(text); got != "ACME MART" {
		t.Fatalf("GuessMerchant = %q, want ACME MART", got)
	}
}

func TestGuessMerchantNoLineBreakFallback(t *testing.T) {
	if got := GuessMerchant("KEDAI RUNCIT MAJU JAYA"); got != "KEDAI RUNCIT MAJU JAYA" {
		t.Fatalf("single-line merchant = %q", got)
	}
	// digits only: no letters, no merchant
	if got := GuessMerchant("0123456789"); got != "" {
		t.Fatalf("expected empty merchant for digit-only text, got %q", got)
	}
}

func TestGuessMerchantTruncates(t *testing.T) {
	long := "AAAAAAAAAABBBBBBBBBBCCCCCCCCCCDDDDDDDDDDEEEEEEEEEEFFFFFFFFFFGGGG\nSECOND LINE"
	got := GuessMerchant(long)
	if len([]rune(got)) != 60 {
		t.Fatalf("expected 60-rune truncation, got %d runes: %q", len([]rune(got)), got)
	}
}

func TestExtractFields(t *testing.T) {
	f := ExtractFields(sampleReceipt)
	if f.Merchant != "ACME STORE SDN BHD" {
		t.Fatalf("merchant = %q", f.Merchant)
	}
	if f.Date != "19/02/2026" {
		t.Fatalf("date = %q", f.Date)
	}
	if len(f.Totals) == 0 || f.Totals[0] != "45.50" {
		t.Fatalf("totals = %v", f.Totals)
	}
}

func TestExtractFieldsEmptyInput(t *testing.T) {
	f := ExtractFields("")
	if f.Merchant != "" || f.Date != "" || len(f.Totals) != 0 {
		t.Fatalf("expected zero fields for empty text, got %+v", f)
	}
}
