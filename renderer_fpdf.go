package pdfreport

import (
	"context"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// fpdf renderer settings. Lengths are inches, font sizes points.
const (
	creatorName         = "go-pdfreport"
	bodyFontFamily      = "Helvetica"
	fallbackTitleFamily = "Times"
	customTitleFamily   = "pdfreport-title"
	tableLineWidth      = 0.5 / 72
	cellPadding         = 0.06
	ellipsis            = "..."
)

// fpdfRenderer draws pages with the pure Go fpdf library.
type fpdfRenderer struct {
	compress bool
}

func newFPDFRenderer(compress bool) *fpdfRenderer {
	return &fpdfRenderer{compress: compress}
}

// fontFace is a registered fpdf font.
type fontFace struct {
	family string
	style  string
	utf8   bool
}

// fpdfCanvas carries the per-render state.
type fpdfCanvas struct {
	pdf    *fpdf.Fpdf
	g      Geometry
	title  fontFace
	encode func(string) string
}

// Render implements Renderer. Metadata dates come from the document so the
// same document always renders to the same bytes.
func (r *fpdfRenderer) Render(ctx context.Context, doc *Document, w io.Writer) error {
	g := doc.Geometry
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "in",
		Size:           fpdf.SizeType{Wd: g.PageHeight, Ht: g.PageWidth},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCellMargin(cellPadding)
	pdf.SetCompression(r.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.CreatedAt)
	pdf.SetModificationDate(doc.CreatedAt)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator(creatorName, true)
	pdf.SetProducer(creatorName, true)

	c := &fpdfCanvas{
		pdf:    pdf,
		g:      g,
		title:  fontFace{family: fallbackTitleFamily, style: "BI"},
		encode: newCP1252Encoder(),
	}

	if len(doc.TitleFont) > 0 {
		pdf.AddUTF8FontFromBytes(customTitleFamily, "", doc.TitleFont)
		if pdf.Err() {
			return fmt.Errorf("%w: %v", ErrFontLoad, pdf.Error())
		}
		c.title = fontFace{family: customTitleFamily, utf8: true}
	}

	for _, p := range doc.pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		pdf.AddPage()
		c.drawTable(p)
		c.drawText(p.Title)
		c.drawText(p.DateStamp)
		if pdf.Err() {
			return fmt.Errorf("%w: page %d: %v", ErrPDFGeneration, p.Index+1, pdf.Error())
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return nil
}

// face returns the font for a text role.
func (c *fpdfCanvas) face(role FontRole, bold bool) fontFace {
	if role == FontTitle {
		return c.title
	}
	if bold {
		return fontFace{family: bodyFontFamily, style: "B"}
	}
	return fontFace{family: bodyFontFamily}
}

// text prepares s for the face: core fonts take Windows-1252 bytes.
func (c *fpdfCanvas) text(f fontFace, s string) string {
	if f.utf8 {
		return s
	}
	return c.encode(s)
}

// drawTable paints the table row by row from the top edge of its box.
func (c *fpdfCanvas) drawTable(p Page) {
	t := p.Table
	left, top := c.g.ToPage(p.TableBox.X, p.TableBox.Y+p.TableBox.H)
	rowH := c.g.RowHeight * c.g.FrameHeight()
	tableW := p.TableBox.W * c.g.FrameWidth()

	c.pdf.SetLineWidth(tableLineWidth)
	c.pdf.SetDrawColor(int(Black.R), int(Black.G), int(Black.B))

	for row := range t.RowCount() {
		x := left
		y := top + float64(row)*rowH
		for col, frac := range t.Widths {
			cell := Cell{Row: row, Col: col}
			style := t.Style(cell)
			face := c.face(FontBody, style.Bold)
			cellW := frac * tableW

			c.pdf.SetFont(face.family, face.style, t.FontSize)
			c.pdf.SetFillColor(int(style.Fill.R), int(style.Fill.G), int(style.Fill.B))
			c.pdf.SetTextColor(int(style.TextColor.R), int(style.TextColor.G), int(style.TextColor.B))
			c.pdf.SetXY(x, y)

			s := c.fit(c.text(face, t.Text(cell)), cellW-2*cellPadding)
			c.pdf.CellFormat(cellW, rowH, s, "1", 0, cellAlign(style.Align), style.Filled, 0, "")
			x += cellW
		}
	}
}

// drawText places a baseline-anchored text item.
func (c *fpdfCanvas) drawText(item TextItem) {
	face := c.face(item.Font, item.Bold)
	s := c.text(face, item.Text)

	c.pdf.SetFont(face.family, face.style, item.Size)
	c.pdf.SetTextColor(int(item.Color.R), int(item.Color.G), int(item.Color.B))

	x, y := c.g.ToPage(item.X, item.Y)
	switch item.Align {
	case AlignCenter:
		x -= c.pdf.GetStringWidth(s) / 2
	case AlignRight:
		x -= c.pdf.GetStringWidth(s)
	}
	c.pdf.Text(x, y, s)
}

// fit shortens single-byte encoded text to maxW with a trailing ellipsis.
func (c *fpdfCanvas) fit(s string, maxW float64) string {
	if c.pdf.GetStringWidth(s) <= maxW {
		return s
	}
	for n := len(s) - 1; n > 0; n-- {
		if cut := s[:n] + ellipsis; c.pdf.GetStringWidth(cut) <= maxW {
			return cut
		}
	}
	return ""
}

func cellAlign(a Align) string {
	switch a {
	case AlignCenter:
		return "CM"
	case AlignRight:
		return "RM"
	default:
		return "LM"
	}
}

// newCP1252Encoder returns a converter for fpdf core fonts. Characters
// outside Windows-1252 become the encoding's replacement byte.
func newCP1252Encoder() func(string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	return func(s string) string {
		out, err := enc.String(s)
		if err != nil {
			return s
		}
		return out
	}
}
