package pdfreport

// Title and date stamp placement, in unit-square coordinates. Text is
// anchored at its baseline.
const (
	DefaultTitle  = "Total purchases report"
	titleX        = 0.5
	titleY        = 1.01 - 0.059
	titleFontSize = 20.0
	dateStampX    = 1.0
	dateStampY    = 1.01
	dateStampSize = 10.0
)

// FontRole selects which font a text item is drawn with. Renderers map
// roles to concrete faces.
type FontRole int

const (
	FontBody FontRole = iota
	FontTitle
)

// TextItem is a single line of text placed in unit-square coordinates.
type TextItem struct {
	Text  string
	X, Y  float64
	Size  float64 // points
	Color Color
	Align Align
	Font  FontRole
	Bold  bool
}

// Page is one composed report page, ready to be rendered.
type Page struct {
	Index     int
	Total     int
	Table     *StyledTable
	TableBox  Rect // unit square, origin bottom-left
	Title     TextItem
	DateStamp TextItem
}

// Composer places a table and the page decorations on the unit square.
type Composer struct {
	Geometry Geometry
	Title    string
}

// NewComposer returns a composer for g with the given title; an empty
// title uses DefaultTitle.
func NewComposer(g Geometry, title string) *Composer {
	if title == "" {
		title = DefaultTitle
	}
	return &Composer{Geometry: g, Title: title}
}

// Compose builds a page. The table's top edge always sits at the title
// margin, so tables line up across pages whatever their row count. The
// date stamp is the same on every page.
func (c *Composer) Compose(table *StyledTable, pageIndex, totalPages int, reportDate string) Page {
	return Page{
		Index:    pageIndex,
		Total:    totalPages,
		Table:    table,
		TableBox: c.TableBox(table.RowCount()),
		Title: TextItem{
			Text:  c.Title,
			X:     titleX,
			Y:     titleY,
			Size:  titleFontSize,
			Color: TitleColor,
			Align: AlignCenter,
			Font:  FontTitle,
			Bold:  true,
		},
		DateStamp: TextItem{
			Text:  reportDate,
			X:     dateStampX,
			Y:     dateStampY,
			Size:  dateStampSize,
			Color: DateStampColor,
			Align: AlignRight,
			Font:  FontBody,
		},
	}
}

// TableBox returns the bounding box of a table with rows rows (header
// included), hanging from the title margin.
func (c *Composer) TableBox(rows int) Rect {
	h := c.Geometry.RowHeight * float64(rows)
	return Rect{X: 0, Y: 1 - c.Geometry.TitleMargin - h, W: 1, H: h}
}
