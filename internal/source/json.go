package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/alnah/go-pdfreport"
)

// JSONSource reads a JSON array of purchases:
//
//	[{"product_name": "Mug", "date_time": "2024-03-15 10:30:00", "price": "49.95"}]
//
// Prices may be numbers or strings.
type JSONSource struct {
	Path string
}

type jsonPurchase struct {
	ProductName string           `json:"product_name"`
	DateTime    string           `json:"date_time"`
	Price       *decimal.Decimal `json:"price"`
}

// Load implements Source.
func (s *JSONSource) Load(ctx context.Context) ([]pdfreport.PurchaseRecord, error) {
	data, err := os.ReadFile(s.Path) // #nosec G304 -- user-provided path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}

	var rows []jsonPurchase
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, s.Path, err)
	}

	records := make([]pdfreport.PurchaseRecord, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if row.Price == nil {
			return nil, fmt.Errorf("%w: %s: item %d: missing price", ErrInvalidRecord, s.Path, i)
		}
		at, err := parseTimestamp(row.DateTime)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: item %d: %v", ErrInvalidRecord, s.Path, i, err)
		}
		rec, err := newRecord(row.ProductName, at, *row.Price)
		if err != nil {
			return nil, fmt.Errorf("%s: item %d: %w", s.Path, i, err)
		}
		records = append(records, rec)
	}

	SortNewestFirst(records)
	return records, nil
}

// Close implements Source.
func (s *JSONSource) Close(context.Context) error { return nil }
