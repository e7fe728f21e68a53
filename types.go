package pdfreport

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRecord is one row of the report. Sources deliver records sorted
// by PurchasedAt descending.
type PurchaseRecord struct {
	ProductName string
	PurchasedAt time.Time
	Price       decimal.Decimal
}

// Default geometry constants. Fractions are relative to the drawing frame
// (the unit square); page dimensions are inches, A4 landscape.
const (
	DefaultRowHeight    = 0.045
	DefaultTitleMargin  = 0.165
	DefaultBottomMargin = 0.05
	DefaultPageWidth    = 11.69
	DefaultPageHeight   = 8.27
	DefaultFrameInset   = 0.5
)

// Insets position the unit square on the physical page, in inches.
type Insets struct {
	Left, Right, Top, Bottom float64
}

// Geometry holds the layout constants shared by every page.
type Geometry struct {
	RowHeight    float64 // fraction of the frame height per table row
	TitleMargin  float64 // fraction reserved above the table
	BottomMargin float64 // fraction reserved below the table
	PageWidth    float64 // inches
	PageHeight   float64 // inches
	Frame        Insets  // inches
}

// DefaultGeometry returns the fixed report geometry.
func DefaultGeometry() Geometry {
	return Geometry{
		RowHeight:    DefaultRowHeight,
		TitleMargin:  DefaultTitleMargin,
		BottomMargin: DefaultBottomMargin,
		PageWidth:    DefaultPageWidth,
		PageHeight:   DefaultPageHeight,
		Frame: Insets{
			Left:   DefaultFrameInset,
			Right:  DefaultFrameInset,
			Top:    DefaultFrameInset,
			Bottom: DefaultFrameInset,
		},
	}
}

// Validate checks the geometry invariants. It does not check that a row
// fits; ComputeLayout does.
func (g Geometry) Validate() error {
	if !(g.RowHeight > 0 && g.RowHeight <= 1) {
		return fmt.Errorf("%w: row height %v must be in (0, 1]", ErrInvalidGeometry, g.RowHeight)
	}
	if g.TitleMargin < 0 || g.BottomMargin < 0 {
		return fmt.Errorf("%w: margins must not be negative", ErrInvalidGeometry)
	}
	if g.TitleMargin+g.BottomMargin >= 1 {
		return fmt.Errorf("%w: title margin %v + bottom margin %v must be < 1",
			ErrInvalidGeometry, g.TitleMargin, g.BottomMargin)
	}
	if g.PageWidth <= 0 || g.PageHeight <= 0 {
		return fmt.Errorf("%w: page size %vx%v must be positive", ErrInvalidGeometry, g.PageWidth, g.PageHeight)
	}
	if g.FrameWidth() <= 0 || g.FrameHeight() <= 0 {
		return fmt.Errorf("%w: frame insets leave no drawing area", ErrInvalidGeometry)
	}
	return nil
}

// FrameWidth is the width of the unit square on the page, in inches.
func (g Geometry) FrameWidth() float64 { return g.PageWidth - g.Frame.Left - g.Frame.Right }

// FrameHeight is the height of the unit square on the page, in inches.
func (g Geometry) FrameHeight() float64 { return g.PageHeight - g.Frame.Top - g.Frame.Bottom }

// ToPage maps a unit-square point (origin bottom-left, y up) to page
// coordinates in inches (origin top-left, y down).
func (g Geometry) ToPage(x, y float64) (float64, float64) {
	return g.Frame.Left + x*g.FrameWidth(), g.Frame.Top + (1-y)*g.FrameHeight()
}

// Rect is an axis-aligned box. Units depend on the context: unit-square
// fractions for page content, points for overlay placement.
type Rect struct {
	X, Y, W, H float64
}

// Color is an sRGB color.
type Color struct {
	R, G, B uint8
}

// Report palette.
var (
	HeaderFill     = MustParseColor("#3A1772")
	AlternateFill  = MustParseColor("#ffe6f0")
	TitleColor     = MustParseColor("#D741A7")
	DateStampColor = MustParseColor("#3A1772")
	White          = Color{255, 255, 255}
	Black          = Color{0, 0, 0}
)

// ParseColor parses "#RRGGBB", "RRGGBB" or "#RGB".
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustParseColor is like ParseColor but panics on error. For constants.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// almostEqual compares floats with the tolerance used for column widths.
func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= widthTolerance
}
