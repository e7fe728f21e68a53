package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alnah/go-pdfreport/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxURILength      = 2048
	MaxNameLength     = 120 // database/collection names
	MaxTitleLength    = 200
	MaxFormatLength   = 64
	MaxCurrencyLength = 10
	MaxColorLength    = 20
	MaxCronLength     = 100
)

// Default values shared by the CLI and `config init`.
const (
	DefaultReportPath      = "reports/product_purchases_report.pdf"
	DefaultStampedPath     = "reports/product_purchases_report_stamped.pdf"
	DefaultLogoPath        = "logo/company_logo.png"
	DefaultTitle           = "Total purchases report"
	DefaultDate            = "auto:[Report date: ]YYYY-MM-DD"
	DefaultTimestampFormat = "YYYY-MM-DD HH:mm:ss"
	DefaultCurrency        = "DKK"
	DefaultRenderer        = "fpdf"
	DefaultTimeout         = "30s"
	DefaultCron            = "0 6 * * *"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
	DefaultMongoDatabase   = "shop"
	DefaultOrders          = "orders"
	DefaultProducts        = "products"
)

// Config holds all configuration for report generation and stamping.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Output   OutputConfig   `yaml:"output"`
	Report   ReportConfig   `yaml:"report"`
	Logo     LogoConfig     `yaml:"logo"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`
}

// SourceConfig selects where purchase records come from.
type SourceConfig struct {
	Path   string      `yaml:"path"`   // CSV or JSON file
	Format string      `yaml:"format"` // csv, json, mongo; empty = from path extension
	Mongo  MongoConfig `yaml:"mongo"`
}

// MongoConfig defines the MongoDB purchase source (orders joined to products).
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	Orders   string `yaml:"orders"`
	Products string `yaml:"products"`
}

// OutputConfig defines report destinations.
type OutputConfig struct {
	Report  string `yaml:"report"`
	Stamped string `yaml:"stamped"`
}

// ReportConfig defines report appearance.
type ReportConfig struct {
	Title           string `yaml:"title"`
	Date            string `yaml:"date"`            // "auto", "auto:FORMAT" or literal
	TimestampFormat string `yaml:"timestampFormat"` // purchase date column
	Currency        string `yaml:"currency"`        // price column label suffix
	TitleFont       string `yaml:"titleFont"`       // TTF path, empty = built-in
	Renderer        string `yaml:"renderer"`        // fpdf, chrome
	Timeout         string `yaml:"timeout"`         // chrome renderer timeout
	Assets          string `yaml:"assets"`          // chrome template/style override directory
}

// LogoConfig defines the overlay stamped on every page. Units are PDF points
// measured from the top-left corner.
type LogoConfig struct {
	Path       string  `yaml:"path"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Background string  `yaml:"background"`
}

// ScheduleConfig defines the cron spec used by `pdfreport schedule`.
type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// Validate checks field lengths and enumerations.
// Called automatically by LoadConfig, but available for callers that build a
// Config by hand.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"source.path", c.Source.Path, MaxPathLength},
		{"source.mongo.uri", c.Source.Mongo.URI, MaxURILength},
		{"source.mongo.database", c.Source.Mongo.Database, MaxNameLength},
		{"source.mongo.orders", c.Source.Mongo.Orders, MaxNameLength},
		{"source.mongo.products", c.Source.Mongo.Products, MaxNameLength},
		{"output.report", c.Output.Report, MaxPathLength},
		{"output.stamped", c.Output.Stamped, MaxPathLength},
		{"report.title", c.Report.Title, MaxTitleLength},
		{"report.date", c.Report.Date, MaxFormatLength},
		{"report.timestampFormat", c.Report.TimestampFormat, MaxFormatLength},
		{"report.currency", c.Report.Currency, MaxCurrencyLength},
		{"report.titleFont", c.Report.TitleFont, MaxPathLength},
		{"report.assets", c.Report.Assets, MaxPathLength},
		{"logo.path", c.Logo.Path, MaxPathLength},
		{"logo.background", c.Logo.Background, MaxColorLength},
		{"schedule.cron", c.Schedule.Cron, MaxCronLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if err := validateOneOf("source.format", c.Source.Format, "csv", "json", "mongo"); err != nil {
		return err
	}
	if err := validateOneOf("report.renderer", c.Report.Renderer, "fpdf", "chrome"); err != nil {
		return err
	}
	if err := validateOneOf("log.level", c.Log.Level, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	if err := validateOneOf("log.format", c.Log.Format, "console", "json"); err != nil {
		return err
	}

	if c.Report.Timeout != "" {
		d, err := time.ParseDuration(c.Report.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: report.timeout: %q is not a positive duration", ErrInvalidValue, c.Report.Timeout)
		}
	}

	if c.Logo.X < 0 || c.Logo.Y < 0 || c.Logo.Width < 0 || c.Logo.Height < 0 {
		return fmt.Errorf("%w: logo: coordinates and size must not be negative", ErrInvalidValue)
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return fmt.Errorf("%w: schedule.cron: %v", ErrInvalidValue, err)
		}
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateOneOf accepts empty values (defaults apply) and the listed options.
func validateOneOf(fieldName, value string, options ...string) error {
	if value == "" {
		return nil
	}
	for _, o := range options {
		if strings.EqualFold(value, o) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %q (must be %s)", ErrInvalidValue, fieldName, value, strings.Join(options, ", "))
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every empty field with its default value.
func (c *Config) ApplyDefaults() {
	setDefault(&c.Source.Mongo.Database, DefaultMongoDatabase)
	setDefault(&c.Source.Mongo.Orders, DefaultOrders)
	setDefault(&c.Source.Mongo.Products, DefaultProducts)
	setDefault(&c.Output.Report, DefaultReportPath)
	setDefault(&c.Output.Stamped, DefaultStampedPath)
	setDefault(&c.Report.Title, DefaultTitle)
	setDefault(&c.Report.Date, DefaultDate)
	setDefault(&c.Report.TimestampFormat, DefaultTimestampFormat)
	setDefault(&c.Report.Currency, DefaultCurrency)
	setDefault(&c.Report.Renderer, DefaultRenderer)
	setDefault(&c.Report.Timeout, DefaultTimeout)
	setDefault(&c.Logo.Path, DefaultLogoPath)
	setDefault(&c.Logo.Background, "#FFFFFF")
	setDefault(&c.Schedule.Cron, DefaultCron)
	setDefault(&c.Log.Level, DefaultLogLevel)
	setDefault(&c.Log.Format, DefaultLogFormat)

	if c.Logo.Width == 0 && c.Logo.Height == 0 {
		c.Logo.Width, c.Logo.Height = 60, 60
		if c.Logo.X == 0 && c.Logo.Y == 0 {
			c.Logo.X, c.Logo.Y = 20, 120
		}
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
// Fields absent from the file keep their defaults.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := unmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// SearchPaths lists the candidate files for a config name, in lookup order:
// current directory then ~/.config/go-pdfreport/, .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-pdfreport", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
