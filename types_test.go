package pdfreport

import (
	"errors"
	"math"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGeometry - Validation and coordinate mapping
// ---------------------------------------------------------------------------

func TestGeometry_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Geometry)
		wantErr error
	}{
		{name: "default", mutate: func(*Geometry) {}},
		{name: "zero row height", mutate: func(g *Geometry) { g.RowHeight = 0 }, wantErr: ErrInvalidGeometry},
		{name: "row height above one", mutate: func(g *Geometry) { g.RowHeight = 1.5 }, wantErr: ErrInvalidGeometry},
		{name: "negative margin", mutate: func(g *Geometry) { g.BottomMargin = -0.1 }, wantErr: ErrInvalidGeometry},
		{name: "margins fill frame", mutate: func(g *Geometry) { g.TitleMargin, g.BottomMargin = 0.5, 0.5 }, wantErr: ErrInvalidGeometry},
		{name: "zero page width", mutate: func(g *Geometry) { g.PageWidth = 0 }, wantErr: ErrInvalidGeometry},
		{name: "insets consume page", mutate: func(g *Geometry) { g.Frame.Left = 6; g.Frame.Right = 6 }, wantErr: ErrInvalidGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := DefaultGeometry()
			tt.mutate(&g)
			if err := g.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGeometry_ToPage(t *testing.T) {
	t.Parallel()

	g := DefaultGeometry()
	tests := []struct {
		name   string
		x, y   float64
		px, py float64
	}{
		{name: "bottom-left", x: 0, y: 0, px: 0.5, py: 7.77},
		{name: "top-right", x: 1, y: 1, px: 11.19, py: 0.5},
		{name: "center", x: 0.5, y: 0.5, px: 5.845, py: 4.135},
		{name: "above frame", x: 1, y: 1.01, px: 11.19, py: 0.5 - 0.0727},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			px, py := g.ToPage(tt.x, tt.y)
			if math.Abs(px-tt.px) > 1e-9 || math.Abs(py-tt.py) > 1e-9 {
				t.Errorf("ToPage(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, px, py, tt.px, tt.py)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestParseColor - Hex parsing
// ---------------------------------------------------------------------------

func TestParseColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Color
		wantErr bool
	}{
		{input: "#3A1772", want: Color{0x3a, 0x17, 0x72}},
		{input: "ffe6f0", want: Color{0xff, 0xe6, 0xf0}},
		{input: "#FFF", want: White},
		{input: " #000000 ", want: Black},
		{input: "#12345", wantErr: true},
		{input: "#GGGGGG", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseColor(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColor) {
					t.Errorf("ParseColor(%q) error = %v, want %v", tt.input, err, ErrInvalidColor)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestColor_Hex(t *testing.T) {
	t.Parallel()

	if got := TitleColor.Hex(); got != "#d741a7" {
		t.Errorf("TitleColor.Hex() = %q, want %q", got, "#d741a7")
	}
}

func TestMustParseColor_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("MustParseColor(invalid) did not panic")
		}
	}()
	MustParseColor("not a color")
}
