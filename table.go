package pdfreport

import (
	"fmt"

	"github.com/alnah/go-pdfreport/internal/dateutil"
)

// widthTolerance bounds the deviation of column widths from a sum of 1.
const widthTolerance = 1e-6

// Default table settings.
const (
	DefaultFontSize = 9.0
	priceColumn     = 2
	columnCount     = 3
)

// Align is the horizontal alignment of cell text.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// String returns the alignment name.
func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// Cell addresses a table cell. Row 0 is the header; body rows start at 1.
type Cell struct {
	Row, Col int
}

// CellStyle describes how a single cell is painted.
type CellStyle struct {
	Fill      Color
	Filled    bool
	TextColor Color
	Bold      bool
	Align     Align
}

// StyledTable is a renderer-independent description of one page's table.
type StyledTable struct {
	Headers  []string
	Rows     [][]string
	Widths   []float64
	Styles   map[Cell]CellStyle
	FontSize float64
}

// RowCount returns the number of rows including the header.
func (t *StyledTable) RowCount() int { return len(t.Rows) + 1 }

// Text returns the text of a cell, header included.
func (t *StyledTable) Text(c Cell) string {
	if c.Row == 0 {
		return t.Headers[c.Col]
	}
	return t.Rows[c.Row-1][c.Col]
}

// Style returns the style of a cell.
func (t *StyledTable) Style(c Cell) CellStyle { return t.Styles[c] }

// RecordFormatter renders a record's fields as cell text.
type RecordFormatter interface {
	FormatRecord(r PurchaseRecord) [columnCount]string
}

// Compile-time interface check.
var _ RecordFormatter = (*DefaultFormatter)(nil)

// DefaultFormatter prints the product name verbatim, the timestamp with a
// dateutil layout and the price with two decimals.
type DefaultFormatter struct {
	layout string
}

// NewFormatter creates a formatter for the given timestamp format
// (dateutil tokens, e.g. "YYYY-MM-DD HH:mm:ss").
func NewFormatter(timestampFormat string) (*DefaultFormatter, error) {
	if timestampFormat == "" {
		timestampFormat = dateutil.DefaultTimestampFormat
	}
	layout, err := dateutil.ParseDateFormat(timestampFormat)
	if err != nil {
		return nil, fmt.Errorf("timestamp format: %w", err)
	}
	return &DefaultFormatter{layout: layout}, nil
}

// FormatRecord implements RecordFormatter.
func (f *DefaultFormatter) FormatRecord(r PurchaseRecord) [columnCount]string {
	return [columnCount]string{
		r.ProductName,
		r.PurchasedAt.Format(f.layout),
		r.Price.StringFixed(2),
	}
}

// Columns configures the table columns: name, purchase time and price.
type Columns struct {
	Labels    [columnCount]string
	Widths    [columnCount]float64
	Formatter RecordFormatter
}

// DefaultColumns returns the standard report columns for a currency code.
func DefaultColumns(currency string) Columns {
	if currency == "" {
		currency = "DKK"
	}
	return Columns{
		Labels:    [columnCount]string{"Product Name", "Purchase Date & Time", "Price in " + currency},
		Widths:    [columnCount]float64{0.4, 0.4, 0.2},
		Formatter: mustFormatter(dateutil.DefaultTimestampFormat),
	}
}

// mustFormatter is like NewFormatter but panics on error. It is meant for
// formats known at compile time.
func mustFormatter(timestampFormat string) *DefaultFormatter {
	f, err := NewFormatter(timestampFormat)
	if err != nil {
		panic(err)
	}
	return f
}

// Validate checks that widths are positive and sum to 1.
func (c Columns) Validate() error {
	sum := 0.0
	for i, w := range c.Widths {
		if w <= 0 {
			return fmt.Errorf("%w: width of column %d is %v", ErrInvalidColumns, i, w)
		}
		sum += w
	}
	if !almostEqual(sum, 1) {
		return fmt.Errorf("%w: widths sum to %v, want 1", ErrInvalidColumns, sum)
	}
	if c.Formatter == nil {
		return fmt.Errorf("%w: nil formatter", ErrInvalidColumns)
	}
	return nil
}

// BuildTable turns one page chunk into a styled table. The header is filled
// and bold white, the price column is right-aligned in body rows, and every
// second body row of the chunk gets the alternate fill. Alternation counts
// rows within the chunk, so it restarts on each page.
func BuildTable(chunk []PurchaseRecord, columns Columns) (*StyledTable, error) {
	if err := columns.Validate(); err != nil {
		return nil, err
	}

	t := &StyledTable{
		Headers:  columns.Labels[:],
		Rows:     make([][]string, len(chunk)),
		Widths:   columns.Widths[:],
		Styles:   make(map[Cell]CellStyle, (len(chunk)+1)*columnCount),
		FontSize: DefaultFontSize,
	}

	for col := range columnCount {
		t.Styles[Cell{Row: 0, Col: col}] = CellStyle{
			Fill:      HeaderFill,
			Filled:    true,
			TextColor: White,
			Bold:      true,
			Align:     AlignLeft,
		}
	}

	for i, rec := range chunk {
		row := i + 1
		cells := columns.Formatter.FormatRecord(rec)
		t.Rows[i] = cells[:]

		alternate := row%2 == 0
		for col := range columnCount {
			style := CellStyle{TextColor: Black, Align: AlignLeft}
			if col == priceColumn {
				style.Align = AlignRight
			}
			if alternate {
				style.Fill = AlternateFill
				style.Filled = true
			}
			t.Styles[Cell{Row: row, Col: col}] = style
		}
	}

	return t, nil
}
