package pdfreport

// Notes:
// - Output is read back with tabula. Text is compared with whitespace
//   removed because the extractor may split or join fragments.

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
)

// A4 landscape in points.
const (
	a4LandscapeW = DefaultPageWidth * 72
	a4LandscapeH = DefaultPageHeight * 72
)

// ---------------------------------------------------------------------------
// TestFPDFRenderer - Real rendering
// ---------------------------------------------------------------------------

func TestFPDFRenderer_ReadBack(t *testing.T) {
	t.Parallel()

	path := writeReport(t, t.TempDir(), 33)
	got := readPDF(t, path)

	if got.Pages != 3 {
		t.Fatalf("pages = %d, want 3", got.Pages)
	}
	for i, size := range got.Sizes {
		if math.Abs(size.W-a4LandscapeW) > 0.01 || math.Abs(size.H-a4LandscapeH) > 0.01 {
			t.Errorf("page %d size = %.2fx%.2f, want %.2fx%.2f", i, size.W, size.H, a4LandscapeW, a4LandscapeH)
		}
	}

	for i, text := range got.Text {
		for _, want := range []string{"Total purchases report", "Report date: 2024-03-15", "Product Name", "Price in DKK"} {
			if !strings.Contains(text, squash(want)) {
				t.Errorf("page %d missing %q", i, want)
			}
		}
	}

	pageOf := map[string]int{"Product 001": 0, "Product 016": 0, "Product 017": 1, "Product 032": 1, "Product 033": 2}
	for name, page := range pageOf {
		if !strings.Contains(got.Text[page], squash(name)) {
			t.Errorf("%q not found on page %d", name, page)
		}
	}
	if strings.Contains(got.Text[2], squash("Product 032")) {
		t.Error("last page repeats a record from page 2")
	}
}

func TestFPDFRenderer_Deterministic(t *testing.T) {
	t.Parallel()

	render := func() []byte {
		a, err := NewAssembler(WithClock(fixedClock))
		if err != nil {
			t.Fatalf("NewAssembler() error = %v", err)
		}
		doc, err := a.Assemble(makeRecords(20))
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		var buf bytes.Buffer
		if err := doc.Render(t.Context(), &buf); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		return buf.Bytes()
	}

	first, second := render(), render()
	if !bytes.HasPrefix(first, []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header")
	}
	if !bytes.Equal(first, second) {
		t.Error("same document rendered to different bytes")
	}
}

func TestFPDFRenderer_Uncompressed(t *testing.T) {
	t.Parallel()

	a, err := NewAssembler(WithClock(fixedClock), WithCompression(false), WithTitle("Plain title"))
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}
	doc, err := a.Assemble(makeRecords(1))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	var buf bytes.Buffer
	if err := doc.Render(t.Context(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("(Plain title) Tj")) {
		t.Error("uncompressed output does not contain the title text operator")
	}
}

func TestFPDFRenderer_NonLatinText(t *testing.T) {
	t.Parallel()

	records := makeRecords(2)
	records[0].ProductName = "Blåbær syltetøj"
	records[1].ProductName = "抹茶"

	a, err := NewAssembler(WithClock(fixedClock))
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "latin.pdf")
	if _, err := a.Generate(t.Context(), records, path); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := readPDF(t, path); got.Pages != 1 {
		t.Errorf("pages = %d, want 1", got.Pages)
	}
}

func TestFPDFRenderer_InvalidTitleFont(t *testing.T) {
	t.Parallel()

	font := filepath.Join(t.TempDir(), "broken.ttf")
	if err := os.WriteFile(font, []byte("not a font"), 0o600); err != nil {
		t.Fatal(err)
	}

	a, err := NewAssembler(WithClock(fixedClock), WithTitleFont(font))
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}
	doc, err := a.Assemble(makeRecords(1))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	err = doc.Render(t.Context(), &bytes.Buffer{})
	if !errors.Is(err, ErrFontLoad) && !errors.Is(err, ErrPDFGeneration) {
		t.Errorf("Render() error = %v, want %v or %v", err, ErrFontLoad, ErrPDFGeneration)
	}
}

// ---------------------------------------------------------------------------
// TestFit - Cell truncation
// ---------------------------------------------------------------------------

func TestFPDFCanvas_Fit(t *testing.T) {
	t.Parallel()

	c := newTestCanvas(DefaultGeometry())

	short := "Tea"
	if got := c.fit(short, 5); got != short {
		t.Errorf("fit(%q) = %q, want unchanged", short, got)
	}

	long := strings.Repeat("W", 200)
	got := c.fit(long, 1)
	if !strings.HasSuffix(got, ellipsis) || len(got) >= len(long) {
		t.Errorf("fit(long) = %q, want truncated with ellipsis", got)
	}
	if w := c.pdf.GetStringWidth(got); w > 1 {
		t.Errorf("fit(long) width = %v, want <= 1", w)
	}
}

func newTestCanvas(g Geometry) *fpdfCanvas {
	pdf := fpdf.New("L", "in", "A4", "")
	pdf.AddPage()
	pdf.SetFont(bodyFontFamily, "", DefaultFontSize)
	return &fpdfCanvas{
		pdf:    pdf,
		g:      g,
		title:  fontFace{family: fallbackTitleFamily, style: "BI"},
		encode: newCP1252Encoder(),
	}
}

func TestCellAlign(t *testing.T) {
	t.Parallel()

	tests := map[Align]string{AlignLeft: "LM", AlignCenter: "CM", AlignRight: "RM"}
	for a, want := range tests {
		if got := cellAlign(a); got != want {
			t.Errorf("cellAlign(%v) = %q, want %q", a, got, want)
		}
	}
}

func TestCP1252Encoder(t *testing.T) {
	t.Parallel()

	enc := newCP1252Encoder()
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "æøå", want: "\xe6\xf8\xe5"},
		{in: "€5", want: "\x805"},
	}
	for _, tt := range tests {
		if got := enc(tt.in); got != tt.want {
			t.Errorf("enc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := enc("抹"); len(got) != 1 {
		t.Errorf("enc(unsupported) = %q, want one replacement byte", got)
	}
}
