package pdfreport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-pdfreport/internal/assets"
	"github.com/alnah/go-pdfreport/internal/dateutil"
	"github.com/alnah/go-pdfreport/internal/fileutil"
)

// Renderer turns a composed document into PDF bytes.
// Renderers that hold resources (a browser) also implement io.Closer;
// Assembler.Close releases them.
type Renderer interface {
	Render(ctx context.Context, doc *Document, w io.Writer) error
}

// Compile-time interface checks.
var (
	_ Renderer  = (*fpdfRenderer)(nil)
	_ Renderer  = (*chromeRenderer)(nil)
	_ io.Closer = (*chromeRenderer)(nil)
)

// Assembler paginates purchase records into a composed document.
// Create with NewAssembler, call Assemble per report and Close when done.
type Assembler struct {
	cfg      assemblerConfig
	columns  Columns
	composer *Composer
	renderer Renderer
	now      func() time.Time
	logger   *zap.Logger

	titleFont []byte
}

// NewAssembler creates an Assembler with the default report settings.
// Returns an error for an unknown renderer, an invalid timestamp format or
// an unreadable title font.
func NewAssembler(opts ...Option) (*Assembler, error) {
	a := &Assembler{
		cfg: assemblerConfig{
			geometry:     DefaultGeometry(),
			currency:     DefaultCurrency,
			title:        DefaultTitle,
			dateFormat:   DefaultDateFormat,
			rendererName: RendererFPDF,
			timeout:      defaultTimeout,
			compress:     true,
		},
		now:    time.Now,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.cfg.columns != nil {
		a.columns = *a.cfg.columns
	} else {
		a.columns = DefaultColumns(a.cfg.currency)
		f, err := NewFormatter(a.cfg.timestampFormat)
		if err != nil {
			return nil, err
		}
		a.columns.Formatter = f
	}

	if a.cfg.titleFontPath != "" {
		data, err := os.ReadFile(a.cfg.titleFontPath) // #nosec G304 -- user-provided path
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFontLoad, a.cfg.titleFontPath, err)
		}
		a.titleFont = data
	}

	a.composer = NewComposer(a.cfg.geometry, a.cfg.title)

	if a.renderer == nil {
		r, err := newRenderer(a.cfg, a.logger)
		if err != nil {
			return nil, err
		}
		a.renderer = r
	}

	return a, nil
}

// newRenderer resolves a built-in renderer by name.
func newRenderer(cfg assemblerConfig, logger *zap.Logger) (Renderer, error) {
	switch strings.ToLower(cfg.rendererName) {
	case "", RendererFPDF:
		return newFPDFRenderer(cfg.compress), nil
	case RendererChrome:
		loader, err := assets.NewAssetResolver(cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("asset path: %w", err)
		}
		if loader.HasCustomLoader() {
			logger.Debug("chrome assets override", zap.String("dir", cfg.assetPath))
		}
		return newChromeRenderer(newRodRenderer(cfg.timeout), loader, logger)
	default:
		return nil, fmt.Errorf("%w: %q (available: %s, %s)", ErrUnknownRenderer, cfg.rendererName, RendererFPDF, RendererChrome)
	}
}

// Assemble computes the layout once, then builds and composes each page in
// order. Records must already be sorted. An empty slice returns
// ErrEmptyInput and no document.
func (a *Assembler) Assemble(records []PurchaseRecord) (*Document, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	layout, err := ComputeLayout(len(records), a.cfg.geometry)
	if err != nil {
		return nil, err
	}

	now := a.now()
	reportDate, err := dateutil.ResolveDate(a.cfg.dateFormat, now)
	if err != nil {
		return nil, fmt.Errorf("report date: %w", err)
	}

	pages := make([]Page, 0, layout.PageCount)
	for i, chunk := range layout.Chunks(records) {
		table, err := BuildTable(chunk, a.columns)
		if err != nil {
			return nil, err
		}
		pages = append(pages, a.composer.Compose(table, i, layout.PageCount, reportDate))
		a.logger.Debug("page composed", zap.Int("page", i+1), zap.Int("rows", len(chunk)))
	}

	a.logger.Debug("document assembled",
		zap.Int("records", len(records)),
		zap.Int("pages", layout.PageCount),
		zap.Int("rowsPerPage", layout.RowsPerPage))

	return &Document{
		Title:      a.composer.Title,
		ReportDate: reportDate,
		CreatedAt:  now,
		Geometry:   a.cfg.geometry,
		Layout:     layout,
		TitleFont:  a.titleFont,
		pages:      pages,
		renderer:   a.renderer,
		logger:     a.logger,
	}, nil
}

// Generate assembles records and writes the document to path.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (a *Assembler) Generate(ctx context.Context, records []PurchaseRecord, path string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()

	doc, err = a.Assemble(records)
	if err != nil {
		return nil, err
	}
	if err := doc.WriteFile(ctx, path); err != nil {
		return nil, err
	}
	return doc, nil
}

// Close releases renderer resources (headless Chrome).
func (a *Assembler) Close() error {
	if c, ok := a.renderer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Document is an assembled report. It is written exactly once, through
// Render or WriteFile.
type Document struct {
	Title      string
	ReportDate string
	CreatedAt  time.Time
	Geometry   Geometry
	Layout     Layout
	TitleFont  []byte // TrueType data; nil selects the built-in face

	pages     []Page
	renderer  Renderer
	logger    *zap.Logger
	finalized bool
}

// Pages returns the composed pages in order. The slice is a copy.
func (d *Document) Pages() []Page {
	out := make([]Page, len(d.pages))
	copy(out, d.pages)
	return out
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.pages) }

// Render writes the PDF to w and finalizes the document.
// Recovers from renderer panics.
func (d *Document) Render(ctx context.Context, w io.Writer) (err error) {
	if d.finalized {
		return ErrDocumentFinalized
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: internal error: %v", ErrPDFGeneration, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.renderer.Render(ctx, d, w); err != nil {
		return err
	}
	d.finalized = true
	return nil
}

// WriteFile renders the document in memory and writes it atomically to
// path, replacing any existing file. Nothing is written on failure.
func (d *Document) WriteFile(ctx context.Context, path string) error {
	if d.finalized {
		return ErrDocumentFinalized
	}

	var buf bytes.Buffer
	if err := d.Render(ctx, &buf); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes()); err != nil {
		d.finalized = false
		return fmt.Errorf("writing report: %w", err)
	}

	d.logger.Debug("report written",
		zap.String("path", path),
		zap.Int("pages", len(d.pages)),
		zap.Int("bytes", buf.Len()))
	return nil
}
