package pdfreport

import (
	"math"
	"testing"
)

// ---------------------------------------------------------------------------
// TestComposer - Page placement
// ---------------------------------------------------------------------------

func TestComposer_Compose(t *testing.T) {
	t.Parallel()

	g := DefaultGeometry()
	c := NewComposer(g, "")
	table, err := BuildTable(makeRecords(3), DefaultColumns(""))
	if err != nil {
		t.Fatalf("BuildTable() error = %v", err)
	}

	p := c.Compose(table, 1, 4, "Report date: 2024-03-15")

	if p.Index != 1 || p.Total != 4 {
		t.Errorf("Index/Total = %d/%d, want 1/4", p.Index, p.Total)
	}
	if p.Title.Text != DefaultTitle {
		t.Errorf("Title.Text = %q, want %q", p.Title.Text, DefaultTitle)
	}
	if p.Title.Font != FontTitle || p.Title.Align != AlignCenter || p.Title.Color != TitleColor {
		t.Errorf("Title = %+v", p.Title)
	}
	if p.DateStamp.Text != "Report date: 2024-03-15" {
		t.Errorf("DateStamp.Text = %q", p.DateStamp.Text)
	}
	if p.DateStamp.Align != AlignRight || p.DateStamp.X != 1 || p.DateStamp.Y != 1.01 {
		t.Errorf("DateStamp = %+v", p.DateStamp)
	}
	if p.Table != table {
		t.Error("Compose() did not keep the table")
	}
}

func TestComposer_TableBox(t *testing.T) {
	t.Parallel()

	g := DefaultGeometry()
	c := NewComposer(g, "Monthly purchases")

	tests := []struct {
		name string
		rows int
	}{
		{name: "header only", rows: 1},
		{name: "partial page", rows: 5},
		{name: "full page", rows: 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			box := c.TableBox(tt.rows)
			top := box.Y + box.H
			if math.Abs(top-(1-g.TitleMargin)) > 1e-9 {
				t.Errorf("table top = %v, want %v", top, 1-g.TitleMargin)
			}
			if math.Abs(box.H-float64(tt.rows)*g.RowHeight) > 1e-9 {
				t.Errorf("table height = %v, want %v", box.H, float64(tt.rows)*g.RowHeight)
			}
			if box.X != 0 || box.W != 1 {
				t.Errorf("table spans [%v, %v], want [0, 1]", box.X, box.X+box.W)
			}
			if box.Y < g.BottomMargin {
				t.Errorf("table bottom %v crosses bottom margin %v", box.Y, g.BottomMargin)
			}
		})
	}
}

func TestComposer_FullPageFitsAboveBottomMargin(t *testing.T) {
	t.Parallel()

	g := DefaultGeometry()
	layout, err := ComputeLayout(100, g)
	if err != nil {
		t.Fatalf("ComputeLayout() error = %v", err)
	}

	box := NewComposer(g, "").TableBox(layout.RowsPerPage + 1)
	if box.Y < g.BottomMargin {
		t.Errorf("full table bottom %v below margin %v", box.Y, g.BottomMargin)
	}
}

func TestNewComposer_Title(t *testing.T) {
	t.Parallel()

	if got := NewComposer(DefaultGeometry(), "Q1").Title; got != "Q1" {
		t.Errorf("Title = %q, want %q", got, "Q1")
	}
	if got := NewComposer(DefaultGeometry(), "").Title; got != DefaultTitle {
		t.Errorf("Title = %q, want %q", got, DefaultTitle)
	}
}
