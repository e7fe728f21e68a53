package pdfreport

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-pdfreport/internal/assets"
	"github.com/alnah/go-pdfreport/internal/fileutil"
	"github.com/alnah/go-pdfreport/internal/process"
)

// pdfRenderer abstracts printing an HTML file to enable testing without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error)
	Close() error
}

// Compile-time interface check.
var _ pdfRenderer = (*rodRenderer)(nil)

// pdfOptions holds the paper size in inches. Margins are always zero; the
// page layout carries its own frame.
type pdfOptions struct {
	PaperWidth  float64
	PaperHeight float64
}

// rodRenderer implements pdfRenderer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
}

// newRodRenderer creates a rodRenderer with the given timeout.
func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		r.killLauncher()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close releases browser resources and kills leftover Chrome processes.
func (r *rodRenderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.killLauncher()
	return err
}

// killLauncher terminates the Chrome process tree started by the launcher.
func (r *rodRenderer) killLauncher() {
	if r.launcher == nil {
		return
	}
	if pid := r.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	r.launcher.Kill()
	r.launcher = nil
}

// RenderFromFile opens a local HTML file in headless Chrome and prints it to PDF.
// Returns explicit errors instead of panicking when browser operations fail.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	// Wait for page to load with timeout from context or default
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPDFOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	return pdfBuf, nil
}

// buildPDFOptions constructs proto.PagePrintToPDF for a margin-free page.
func buildPDFOptions(opts *pdfOptions) *proto.PagePrintToPDF {
	width, height := DefaultPageWidth, DefaultPageHeight
	if opts != nil && opts.PaperWidth > 0 && opts.PaperHeight > 0 {
		width, height = opts.PaperWidth, opts.PaperHeight
	}
	return &proto.PagePrintToPDF{
		PaperWidth:        floatPtr(width),
		PaperHeight:       floatPtr(height),
		MarginTop:         floatPtr(0),
		MarginBottom:      floatPtr(0),
		MarginLeft:        floatPtr(0),
		MarginRight:       floatPtr(0),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// chromeRenderer lays the composed pages out as absolutely positioned HTML
// and prints them with headless Chrome.
type chromeRenderer struct {
	pdf    pdfRenderer
	tmpl   *template.Template
	style  template.CSS
	logger *zap.Logger
}

// newChromeRenderer loads the report template and style through loader.
func newChromeRenderer(pdf pdfRenderer, loader assets.AssetLoader, logger *zap.Logger) (*chromeRenderer, error) {
	src, err := loader.LoadTemplate(assets.ReportName)
	if err != nil {
		return nil, fmt.Errorf("loading report template: %w", err)
	}
	css, err := loader.LoadStyle(assets.ReportName)
	if err != nil {
		return nil, fmt.Errorf("loading report style: %w", err)
	}
	tmpl, err := template.New(assets.ReportName).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &chromeRenderer{
		pdf:    pdf,
		tmpl:   tmpl,
		style:  template.CSS(css), // #nosec G203 -- style comes from the asset loader
		logger: logger,
	}, nil
}

// Render implements Renderer.
func (c *chromeRenderer) Render(ctx context.Context, doc *Document, w io.Writer) error {
	html, err := c.buildHTML(doc)
	if err != nil {
		return err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	data, err := c.pdf.RenderFromFile(ctx, tmpPath, &pdfOptions{
		PaperWidth:  doc.Geometry.PageWidth,
		PaperHeight: doc.Geometry.PageHeight,
	})
	if err != nil {
		return err
	}
	c.logger.Debug("chrome printed report",
		zap.Int("pages", doc.PageCount()),
		zap.Duration("elapsed", time.Since(start)))

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}

// Close releases the browser.
func (c *chromeRenderer) Close() error {
	return c.pdf.Close()
}

// View model for the report template. Lengths are inches.
type (
	reportView struct {
		Title      string
		Style      template.CSS
		FontCSS    template.CSS
		PageWidth  float64
		PageHeight float64
		RowHeight  float64
		Pages      []pageView
	}

	pageView struct {
		Title     textView
		DateStamp textView
		Table     tableView
	}

	textView struct {
		Text  string
		Left  float64
		Top   float64
		Size  float64
		Color string
		Align string
	}

	tableView struct {
		Left     float64
		Top      float64
		Width    float64
		FontSize float64
		Rows     []rowView
	}

	rowView struct {
		Cells []cellView
	}

	cellView struct {
		Text       string
		Width      float64
		Background string
		Color      string
		Align      string
		Bold       bool
	}
)

// titleFontFamily matches the first family of the .title rule in the
// report style.
const titleFontFamily = "Report Title"

// buildHTML executes the report template for doc.
func (c *chromeRenderer) buildHTML(doc *Document) (string, error) {
	g := doc.Geometry
	view := reportView{
		Title:      doc.Title,
		Style:      c.style,
		PageWidth:  g.PageWidth,
		PageHeight: g.PageHeight,
		RowHeight:  g.RowHeight * g.FrameHeight(),
		Pages:      make([]pageView, 0, len(doc.pages)),
	}
	if len(doc.TitleFont) > 0 {
		view.FontCSS = template.CSS(fmt.Sprintf( // #nosec G203 -- base64 payload only
			"@font-face { font-family: %q; src: url(data:font/ttf;base64,%s); }",
			titleFontFamily, base64.StdEncoding.EncodeToString(doc.TitleFont)))
	}

	for _, p := range doc.pages {
		view.Pages = append(view.Pages, pageView{
			Title:     newTextView(g, p.Title),
			DateStamp: newTextView(g, p.DateStamp),
			Table:     newTableView(g, p),
		})
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("rendering report HTML: %w", err)
	}
	return buf.String(), nil
}

func newTextView(g Geometry, item TextItem) textView {
	x, y := g.ToPage(item.X, item.Y)
	return textView{
		Text:  item.Text,
		Left:  x,
		Top:   y,
		Size:  item.Size,
		Color: item.Color.Hex(),
		Align: item.Align.String(),
	}
}

func newTableView(g Geometry, p Page) tableView {
	t := p.Table
	left, top := g.ToPage(p.TableBox.X, p.TableBox.Y+p.TableBox.H)
	width := p.TableBox.W * g.FrameWidth()

	view := tableView{
		Left:     left,
		Top:      top,
		Width:    width,
		FontSize: t.FontSize,
		Rows:     make([]rowView, t.RowCount()),
	}
	for row := range t.RowCount() {
		cells := make([]cellView, len(t.Widths))
		for col, frac := range t.Widths {
			cell := Cell{Row: row, Col: col}
			style := t.Style(cell)
			background := "transparent"
			if style.Filled {
				background = style.Fill.Hex()
			}
			cells[col] = cellView{
				Text:       t.Text(cell),
				Width:      frac * width,
				Background: background,
				Color:      style.TextColor.Hex(),
				Align:      style.Align.String(),
				Bold:       style.Bold,
			}
		}
		view.Rows[row] = rowView{Cells: cells}
	}
	return view
}
