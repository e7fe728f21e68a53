package pdfreport

import (
	"time"

	"go.uber.org/zap"
)

// Option configures an Assembler.
type Option func(*Assembler)

// assemblerConfig holds internal configuration for Assembler.
type assemblerConfig struct {
	geometry        Geometry
	columns         *Columns
	currency        string
	timestampFormat string
	title           string
	dateFormat      string
	rendererName    string
	titleFontPath   string
	assetPath       string
	timeout         time.Duration
	compress        bool
}

// Renderer names accepted by WithRendererName.
const (
	RendererFPDF   = "fpdf"
	RendererChrome = "chrome"
)

// Defaults used when no option overrides them.
const (
	defaultTimeout    = 30 * time.Second
	DefaultDateFormat = "auto:[Report date: ]YYYY-MM-DD"
	DefaultCurrency   = "DKK"
)

// WithGeometry replaces the report geometry. Invalid geometry is reported
// by Assemble.
func WithGeometry(g Geometry) Option {
	return func(a *Assembler) {
		a.cfg.geometry = g
	}
}

// WithColumns replaces the table columns, labels and formatter included.
// It takes precedence over WithCurrency and WithTimestampFormat.
func WithColumns(c Columns) Option {
	return func(a *Assembler) {
		a.cfg.columns = &c
	}
}

// WithCurrency sets the currency code shown in the price column header.
func WithCurrency(code string) Option {
	return func(a *Assembler) {
		a.cfg.currency = code
	}
}

// WithTimestampFormat sets the purchase time format (dateutil tokens).
func WithTimestampFormat(format string) Option {
	return func(a *Assembler) {
		a.cfg.timestampFormat = format
	}
}

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(a *Assembler) {
		a.cfg.title = title
	}
}

// WithDateFormat sets the date stamp. Accepts "auto", "auto:FORMAT" or a
// literal string.
func WithDateFormat(format string) Option {
	return func(a *Assembler) {
		a.cfg.dateFormat = format
	}
}

// WithClock sets the time source used for the date stamp and document
// metadata.
// Panics if now is nil (programmer error).
func WithClock(now func() time.Time) Option {
	if now == nil {
		panic("pdfreport: WithClock requires a non-nil function")
	}
	return func(a *Assembler) {
		a.now = now
	}
}

// WithRendererName selects a built-in renderer: "fpdf" (default) or
// "chrome". Unknown names fail in NewAssembler.
func WithRendererName(name string) Option {
	return func(a *Assembler) {
		a.cfg.rendererName = name
	}
}

// WithRenderer injects a custom renderer. It takes precedence over
// WithRendererName.
func WithRenderer(r Renderer) Option {
	return func(a *Assembler) {
		a.renderer = r
	}
}

// WithTitleFont sets a TrueType font file for the title. The file is read
// by NewAssembler.
func WithTitleFont(path string) Option {
	return func(a *Assembler) {
		a.cfg.titleFontPath = path
	}
}

// WithAssetPath sets a directory whose templates/report.html and
// styles/report.css override the Chrome renderer's built-in assets.
func WithAssetPath(dir string) Option {
	return func(a *Assembler) {
		a.cfg.assetPath = dir
	}
}

// WithTimeout sets the Chrome renderer page load timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("pdfreport: WithTimeout duration must be positive")
	}
	return func(a *Assembler) {
		a.cfg.timeout = d
	}
}

// WithCompression toggles stream compression in the fpdf renderer
// (enabled by default).
func WithCompression(on bool) Option {
	return func(a *Assembler) {
		a.cfg.compress = on
	}
}

// WithLogger sets the logger. Nil keeps the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}
