package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alnah/go-pdfreport"
)

// CSVSource reads records from a CSV file with a header row naming the
// product_name, date_time and price columns in any order. Extra columns
// are ignored.
type CSVSource struct {
	Path string
}

// Load implements Source.
func (s *CSVSource) Load(ctx context.Context) ([]pdfreport.PurchaseRecord, error) {
	f, err := os.Open(s.Path) // #nosec G304 -- user-provided path
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.Path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := readCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	SortNewestFirst(records)
	return records, nil
}

// Close implements Source.
func (s *CSVSource) Close(context.Context) error { return nil }

func readCSV(ctx context.Context, r io.Reader) ([]pdfreport.PurchaseRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := [3]int{-1, -1, -1}
	for i, h := range header {
		if field, ok := columnIndex(strings.TrimPrefix(h, "\ufeff")); ok && cols[field] < 0 {
			cols[field] = i
		}
	}
	for field, idx := range cols {
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, columnNames[field])
		}
	}

	var records []pdfreport.PurchaseRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		line, _ := cr.FieldPos(0)

		get := func(field int) string {
			if cols[field] >= len(row) {
				return ""
			}
			return row[cols[field]]
		}

		at, err := parseTimestamp(get(1))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidRecord, line, err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(get(2)))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: price %q: %v", ErrInvalidRecord, line, get(2), err)
		}
		rec, err := newRecord(get(0), at, price)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
