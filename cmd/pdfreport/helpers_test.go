package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tsawler/tabula/reader"
	"go.uber.org/zap"

	"github.com/alnah/go-pdfreport"
	"github.com/alnah/go-pdfreport/internal/source"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment and fake sources
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

// testEnv returns an environment with captured output, a fixed clock and
// the real source factory.
func testEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &Environment{
		Now:       func() time.Time { return fixedNow },
		Stdout:    stdout,
		Stderr:    stderr,
		NewSource: source.New,
	}, stdout, stderr
}

// fakeSource serves fixed records.
type fakeSource struct {
	mu      sync.Mutex
	records []pdfreport.PurchaseRecord
	err     error
	loads   int
	closed  bool
}

func (s *fakeSource) Load(context.Context) ([]pdfreport.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.records, s.err
}

func (s *fakeSource) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// withSource makes env serve src regardless of configuration.
func withSource(env *Environment, src *fakeSource) {
	env.NewSource = func(context.Context, source.Config, *zap.Logger) (source.Source, error) {
		return src, nil
	}
}

// makeRecords returns n records, newest first, one minute apart.
func makeRecords(n int) []pdfreport.PurchaseRecord {
	records := make([]pdfreport.PurchaseRecord, n)
	for i := range n {
		records[i] = pdfreport.PurchaseRecord{
			ProductName: fmt.Sprintf("Product %03d", i+1),
			PurchasedAt: fixedNow.Add(-time.Duration(i) * time.Minute),
			Price:       decimal.NewFromFloat(10.5).Add(decimal.NewFromInt(int64(i))),
		}
	}
	return records
}

// ---------------------------------------------------------------------------
// Test Infrastructure - Files
// ---------------------------------------------------------------------------

// writeCSV writes n purchases to dir/purchases.csv, oldest first.
func writeCSV(t *testing.T, dir string, n int) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("product_name,date_time,price\n")
	for i := n - 1; i >= 0; i-- {
		at := fixedNow.Add(-time.Duration(i) * time.Minute)
		fmt.Fprintf(&b, "Product %03d,%s,%d.50\n", i+1, at.Format("2006-01-02 15:04:05"), 10+i)
	}
	path := filepath.Join(dir, "purchases.csv")
	writeFile(t, path, []byte(b.String()))
	return path
}

// writeLogo writes a solid PNG logo to dir/logo.png.
func writeLogo(t *testing.T, dir string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			img.Set(x, y, color.RGBA{R: 0xd7, G: 0x41, B: 0xa7, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding logo: %v", err)
	}
	path := filepath.Join(dir, "logo.png")
	writeFile(t, path, buf.Bytes())
	return path
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// pageCount opens a PDF and returns its page count.
func pageCount(t *testing.T, path string) int {
	t.Helper()

	r, err := reader.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer func() { _ = r.Close() }()

	n, err := r.PageCount()
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	return n
}
