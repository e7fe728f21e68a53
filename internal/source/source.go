// Package source loads purchase records from CSV files, JSON files and
// MongoDB. Every source returns records sorted by purchase time, newest
// first.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alnah/go-pdfreport"
)

// Format names.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatMongo = "mongo"
)

// Formats lists the supported format names.
var Formats = []string{FormatCSV, FormatJSON, FormatMongo}

// Source delivers purchase records.
type Source interface {
	Load(ctx context.Context) ([]pdfreport.PurchaseRecord, error)
	Close(ctx context.Context) error
}

// Config selects and configures a source.
type Config struct {
	Path   string
	Format string // empty = from Path extension, or mongo when Path is empty and a URI is set
	Mongo  MongoConfig
}

// Compile-time interface checks.
var (
	_ Source = (*CSVSource)(nil)
	_ Source = (*JSONSource)(nil)
	_ Source = (*MongoSource)(nil)
)

// DetectFormat resolves the format name for cfg.
func DetectFormat(cfg Config) (string, error) {
	if cfg.Format != "" {
		f := strings.ToLower(cfg.Format)
		if !slices.Contains(Formats, f) {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, cfg.Format)
		}
		return f, nil
	}
	if cfg.Path == "" {
		if cfg.Mongo.URI != "" {
			return FormatMongo, nil
		}
		return "", ErrMissingPath
	}
	switch ext := strings.ToLower(filepath.Ext(cfg.Path)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: cannot infer format from extension %q", ErrUnsupportedFormat, ext)
	}
}

// New opens the source described by cfg. MongoDB sources connect
// immediately and must be closed.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Source, error) {
	format, err := DetectFormat(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch format {
	case FormatCSV:
		if cfg.Path == "" {
			return nil, ErrMissingPath
		}
		return &CSVSource{Path: cfg.Path}, nil
	case FormatJSON:
		if cfg.Path == "" {
			return nil, ErrMissingPath
		}
		return &JSONSource{Path: cfg.Path}, nil
	default:
		return NewMongoSource(ctx, cfg.Mongo, logger)
	}
}

// SortNewestFirst orders records by purchase time, newest first. Records
// with equal timestamps keep their input order.
func SortNewestFirst(records []pdfreport.PurchaseRecord) {
	slices.SortStableFunc(records, func(a, b pdfreport.PurchaseRecord) int {
		return b.PurchasedAt.Compare(a.PurchasedAt)
	})
}

// timestampLayouts are tried in order when parsing file sources.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp parses a purchase time. Times without a zone are local.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// newRecord validates and builds a record.
func newRecord(name string, at time.Time, price decimal.Decimal) (pdfreport.PurchaseRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return pdfreport.PurchaseRecord{}, fmt.Errorf("%w: empty product name", ErrInvalidRecord)
	}
	if price.IsNegative() {
		return pdfreport.PurchaseRecord{}, fmt.Errorf("%w: negative price %s for %q", ErrInvalidRecord, price, name)
	}
	return pdfreport.PurchaseRecord{ProductName: name, PurchasedAt: at, Price: price}, nil
}

// columnIndex maps accepted header names to record fields.
func columnIndex(header string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case "product_name", "product name", "name":
		return 0, true
	case "date_time", "purchase date & time", "purchased_at", "datetime":
		return 1, true
	case "price", "amount":
		return 2, true
	}
	return 0, false
}

var columnNames = [3]string{"product_name", "date_time", "price"}
