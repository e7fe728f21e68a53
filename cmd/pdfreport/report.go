package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-pdfreport"
	"github.com/alnah/go-pdfreport/internal/config"
	"github.com/alnah/go-pdfreport/internal/hints"
	"github.com/alnah/go-pdfreport/internal/logging"
	"github.com/alnah/go-pdfreport/internal/source"
)

// Sentinel errors for CLI operations.
var (
	ErrInvalidExtension = errors.New("output file must have .pdf extension")
)

// reportRunner carries the resolved settings of one report command.
// The scheduler reuses a single runner for every run.
type reportRunner struct {
	cfg    *config.Config
	env    *Environment
	logger *zap.Logger
	quiet  bool
}

// newReportRunner resolves configuration and builds the logger.
func newReportRunner(f *cliFlags, env *Environment) (*reportRunner, error) {
	cfg, err := resolveConfig(f)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, env.Stderr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return &reportRunner{cfg: cfg, env: env, logger: logger, quiet: f.common.quiet}, nil
}

// resolveConfig builds the effective configuration.
// Order: CLI flags > env vars > config file > defaults.
func resolveConfig(f *cliFlags) (*config.Config, error) {
	envCfg := loadEnvConfig()

	name := f.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(f, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags applies set CLI flags over cfg. Zero logo coordinates keep the
// configured value.
func mergeFlags(f *cliFlags, cfg *config.Config) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overrideFloat := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}

	// Common flags
	override(&cfg.Log.Format, f.common.logFormat)
	if f.common.verbose {
		cfg.Log.Level = "debug"
	}
	if f.common.quiet {
		cfg.Log.Level = "error"
	}

	// Source flags
	override(&cfg.Source.Path, f.sourcePath)
	override(&cfg.Source.Format, f.source.format)
	override(&cfg.Source.Mongo.URI, f.source.mongoURI)
	override(&cfg.Source.Mongo.Database, f.source.database)

	// Report flags
	override(&cfg.Output.Report, f.report.output)
	override(&cfg.Report.Title, f.report.title)
	override(&cfg.Report.Date, f.report.date)
	override(&cfg.Report.TimestampFormat, f.report.timestampFormat)
	override(&cfg.Report.Currency, f.report.currency)
	override(&cfg.Report.TitleFont, f.report.titleFont)
	override(&cfg.Report.Renderer, f.report.renderer)
	override(&cfg.Report.Timeout, f.report.timeout)
	override(&cfg.Report.Assets, f.report.assetPath)

	// Logo flags
	override(&cfg.Logo.Path, f.logo.path)
	override(&cfg.Output.Stamped, f.logo.stamped)
	overrideFloat(&cfg.Logo.X, f.logo.x)
	overrideFloat(&cfg.Logo.Y, f.logo.y)
	overrideFloat(&cfg.Logo.Width, f.logo.width)
	overrideFloat(&cfg.Logo.Height, f.logo.height)
	override(&cfg.Logo.Background, f.logo.background)

	// Schedule flags
	override(&cfg.Schedule.Cron, f.cron)
}

// validatePDFExtension rejects output paths that do not end in .pdf.
func validatePDFExtension(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, path)
	}
	return nil
}

// sourceConfig maps the source section onto source.Config.
func sourceConfig(cfg *config.Config) source.Config {
	return source.Config{
		Path:   cfg.Source.Path,
		Format: cfg.Source.Format,
		Mongo: source.MongoConfig{
			URI:      cfg.Source.Mongo.URI,
			Database: cfg.Source.Mongo.Database,
			Orders:   cfg.Source.Mongo.Orders,
			Products: cfg.Source.Mongo.Products,
		},
	}
}

// describeSource names the configured source for log lines. MongoDB
// credentials are never logged.
func describeSource(cfg *config.Config) string {
	if cfg.Source.Path != "" {
		return cfg.Source.Path
	}
	if cfg.Source.Mongo.URI != "" {
		return "mongo:" + cfg.Source.Mongo.Database
	}
	return "(none)"
}

// assemblerOptions maps the report section onto Assembler options.
func (r *reportRunner) assemblerOptions() ([]pdfreport.Option, error) {
	opts := []pdfreport.Option{
		pdfreport.WithTitle(r.cfg.Report.Title),
		pdfreport.WithDateFormat(r.cfg.Report.Date),
		pdfreport.WithTimestampFormat(r.cfg.Report.TimestampFormat),
		pdfreport.WithCurrency(r.cfg.Report.Currency),
		pdfreport.WithRendererName(r.cfg.Report.Renderer),
		pdfreport.WithTitleFont(r.cfg.Report.TitleFont),
		pdfreport.WithAssetPath(r.cfg.Report.Assets),
		pdfreport.WithLogger(logging.Named(r.logger, "report")),
	}
	if r.env.Now != nil {
		opts = append(opts, pdfreport.WithClock(r.env.Now))
	}
	if r.cfg.Report.Timeout != "" {
		d, err := time.ParseDuration(r.cfg.Report.Timeout)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: report.timeout: %q", config.ErrInvalidValue, r.cfg.Report.Timeout)
		}
		opts = append(opts, pdfreport.WithTimeout(d))
	}
	return opts, nil
}

// loadRecords opens the configured source and loads every record.
func (r *reportRunner) loadRecords(ctx context.Context) ([]pdfreport.PurchaseRecord, error) {
	src, err := r.env.NewSource(ctx, sourceConfig(r.cfg), logging.Named(r.logger, "source"))
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	defer func() {
		if cerr := src.Close(context.WithoutCancel(ctx)); cerr != nil {
			r.logger.Warn("closing source", zap.Error(cerr))
		}
	}()

	records, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	r.logger.Debug("records loaded",
		zap.String("source", describeSource(r.cfg)),
		zap.Int("count", len(records)))
	return records, nil
}

// generate writes the report. An empty source prints a notice and returns
// a nil document with no error.
func (r *reportRunner) generate(ctx context.Context) (*pdfreport.Document, error) {
	if err := validatePDFExtension(r.cfg.Output.Report); err != nil {
		return nil, err
	}

	records, err := r.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		if !r.quiet {
			fmt.Fprintf(r.env.Stderr, "notice: no purchase records in %s%s\n", describeSource(r.cfg), hints.ForEmptyReport())
		}
		return nil, nil
	}

	opts, err := r.assemblerOptions()
	if err != nil {
		return nil, err
	}
	a, err := pdfreport.NewAssembler(opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			r.logger.Warn("closing renderer", zap.Error(cerr))
		}
	}()

	start := time.Now()
	doc, err := a.Generate(ctx, records, r.cfg.Output.Report)
	if err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}

	r.logger.Info("report generated",
		zap.String("path", r.cfg.Output.Report),
		zap.Int("records", len(records)),
		zap.Int("pages", doc.PageCount()),
		zap.Duration("elapsed", time.Since(start)))
	return doc, nil
}

// stamp overlays the configured logo onto src. A missing logo copies src
// unchanged.
func (r *reportRunner) stamp(ctx context.Context, src string) (*pdfreport.StampResult, error) {
	if err := validatePDFExtension(r.cfg.Output.Stamped); err != nil {
		return nil, err
	}

	bg, err := pdfreport.ParseColor(r.cfg.Logo.Background)
	if err != nil {
		return nil, fmt.Errorf("logo background: %w", err)
	}
	placement := pdfreport.Rect{X: r.cfg.Logo.X, Y: r.cfg.Logo.Y, W: r.cfg.Logo.Width, H: r.cfg.Logo.Height}
	asset, err := pdfreport.LoadOverlayAsset(r.cfg.Logo.Path, placement, bg)
	if err != nil {
		return nil, fmt.Errorf("loading logo: %w", err)
	}
	if asset == nil {
		r.logger.Warn("logo not found, copying report unchanged", zap.String("logo", r.cfg.Logo.Path))
	}

	s := pdfreport.NewStamper(pdfreport.WithStampLogger(logging.Named(r.logger, "stamp")))
	res, err := s.Stamp(ctx, src, r.cfg.Output.Stamped, asset)
	if err != nil {
		return nil, fmt.Errorf("stamping report: %w", err)
	}

	r.logger.Info("report stamped",
		zap.String("source", src),
		zap.String("path", r.cfg.Output.Stamped),
		zap.Int("pages", res.Pages),
		zap.Bool("overlaid", res.Overlaid))
	return res, nil
}

// run generates then stamps. Stamping is skipped when no report was written.
func (r *reportRunner) run(ctx context.Context) error {
	doc, err := r.generate(ctx)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	_, err = r.stamp(ctx, r.cfg.Output.Report)
	return err
}

// singleSource reads the optional positional source argument.
func singleSource(cmd string, pos []string, f *cliFlags) error {
	switch len(pos) {
	case 0:
		return nil
	case 1:
		f.sourcePath = pos[0]
		return nil
	default:
		return fmt.Errorf("%w: %s takes at most one source argument, got %d", ErrUsage, cmd, len(pos))
	}
}

// runGenerate handles `pdfreport generate`.
func runGenerate(ctx context.Context, args []string, env *Environment) error {
	f, pos, err := parseGenerateFlags(args, env)
	if err != nil {
		return err
	}
	if err := singleSource("generate", pos, f); err != nil {
		return err
	}

	r, err := newReportRunner(f, env)
	if err != nil {
		return err
	}
	defer func() { _ = r.logger.Sync() }()

	_, err = r.generate(ctx)
	return err
}

// runStamp handles `pdfreport stamp`.
func runStamp(ctx context.Context, args []string, env *Environment) error {
	f, pos, err := parseStampFlags(args, env)
	if err != nil {
		return err
	}
	switch len(pos) {
	case 0:
	case 1:
		f.report.output = pos[0]
	default:
		return fmt.Errorf("%w: stamp takes at most one report argument, got %d", ErrUsage, len(pos))
	}

	r, err := newReportRunner(f, env)
	if err != nil {
		return err
	}
	defer func() { _ = r.logger.Sync() }()

	_, err = r.stamp(ctx, r.cfg.Output.Report)
	return err
}

// runRun handles `pdfreport run`.
func runRun(ctx context.Context, args []string, env *Environment) error {
	f, pos, err := parseRunFlags(args, env)
	if err != nil {
		return err
	}
	if err := singleSource("run", pos, f); err != nil {
		return err
	}

	r, err := newReportRunner(f, env)
	if err != nil {
		return err
	}
	defer func() { _ = r.logger.Sync() }()

	return r.run(ctx)
}
