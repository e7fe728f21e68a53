package pdfreport

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tsawler/tabula/reader"
)

// ---------------------------------------------------------------------------
// Shared fixtures
// ---------------------------------------------------------------------------

// fixedNow is the clock used by every test that renders a document.
var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// makeRecords returns n records, newest first, one minute apart.
func makeRecords(n int) []PurchaseRecord {
	records := make([]PurchaseRecord, n)
	for i := range n {
		records[i] = PurchaseRecord{
			ProductName: fmt.Sprintf("Product %03d", i+1),
			PurchasedAt: fixedNow.Add(-time.Duration(i) * time.Minute),
			Price:       decimal.NewFromFloat(10.5).Add(decimal.NewFromInt(int64(i))),
		}
	}
	return records
}

// pngBytes encodes a w×h solid image.
func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// pdfSummary is what tabula reads back from a rendered file.
type pdfSummary struct {
	Pages int
	Sizes []pageSize
	Text  []string // per page, whitespace removed
}

// readPDF parses path with tabula.
func readPDF(t *testing.T, path string) pdfSummary {
	t.Helper()

	r, err := reader.Open(path)
	if err != nil {
		t.Fatalf("reader.Open(%s) error = %v", path, err)
	}
	defer func() { _ = r.Close() }()

	n, err := r.PageCount()
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}

	s := pdfSummary{Pages: n}
	for i := range n {
		page, err := r.GetPage(i)
		if err != nil {
			t.Fatalf("GetPage(%d) error = %v", i, err)
		}
		w, _ := page.Width()
		h, _ := page.Height()
		s.Sizes = append(s.Sizes, pageSize{W: w, H: h})

		fragments, err := r.ExtractTextFragments(page)
		if err != nil {
			t.Fatalf("ExtractTextFragments(%d) error = %v", i, err)
		}
		var sb strings.Builder
		for _, f := range fragments {
			sb.WriteString(f.Text)
		}
		s.Text = append(s.Text, squash(sb.String()))
	}
	return s
}

// squash removes whitespace so text checks do not depend on how the
// extractor splits fragments.
func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// writeReport renders n records with the fpdf renderer into dir.
func writeReport(t *testing.T, dir string, n int) string {
	t.Helper()

	a, err := NewAssembler(WithClock(fixedClock))
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}
	path := filepath.Join(dir, "report.pdf")
	if _, err := a.Generate(t.Context(), makeRecords(n), path); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return path
}

// readFile fails the test on error.
func readFile(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile(%s) error = %v", path, err)
	}
	return data
}
