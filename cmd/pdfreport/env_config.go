package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/alnah/go-pdfreport/internal/config"
)

// envFileVar names the dotenv file to load instead of ./.env.
const envFileVar = "PDFREPORT_ENV_FILE"

// envConfig holds configuration from environment variables.
// Provides CI/cron-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // PDFREPORT_CONFIG: config file name or path
	Source     string // PDFREPORT_SOURCE: CSV or JSON path
	MongoURI   string // PDFREPORT_MONGO_URI: MongoDB connection string
	Output     string // PDFREPORT_OUTPUT: report path
	Stamped    string // PDFREPORT_STAMPED: stamped report path

	// Tier 2 - Source details
	SourceFormat  string // PDFREPORT_SOURCE_FORMAT: csv, json, mongo
	MongoDatabase string // PDFREPORT_MONGO_DATABASE: database name

	// Tier 3 - Appearance and runtime
	Logo      string // PDFREPORT_LOGO: logo image path
	Title     string // PDFREPORT_TITLE: report title
	Currency  string // PDFREPORT_CURRENCY: price column currency
	TitleFont string // PDFREPORT_TITLE_FONT: TTF path
	Renderer  string // PDFREPORT_RENDERER: fpdf, chrome
	Timeout   string // PDFREPORT_TIMEOUT: chrome renderer timeout
	Cron      string // PDFREPORT_CRON: schedule spec
	LogLevel  string // PDFREPORT_LOG_LEVEL: debug, info, warn, error
	LogFormat string // PDFREPORT_LOG_FORMAT: console, json
}

// knownEnvVars lists valid PDFREPORT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"PDFREPORT_CONFIG":    true,
	"PDFREPORT_SOURCE":    true,
	"PDFREPORT_MONGO_URI": true,
	"PDFREPORT_OUTPUT":    true,
	"PDFREPORT_STAMPED":   true,
	// Tier 2 - Source details
	"PDFREPORT_SOURCE_FORMAT":  true,
	"PDFREPORT_MONGO_DATABASE": true,
	// Tier 3 - Appearance and runtime
	"PDFREPORT_LOGO":       true,
	"PDFREPORT_TITLE":      true,
	"PDFREPORT_CURRENCY":   true,
	"PDFREPORT_TITLE_FONT": true,
	"PDFREPORT_RENDERER":   true,
	"PDFREPORT_TIMEOUT":    true,
	"PDFREPORT_CRON":       true,
	"PDFREPORT_LOG_LEVEL":  true,
	"PDFREPORT_LOG_FORMAT": true,
	// Loader and diagnostics
	envFileVar:            true,
	"PDFREPORT_CONTAINER": true,
	// Integration tests
	"PDFREPORT_TEST_MONGO_URI": true,
}

// loadDotEnv loads a dotenv file into the process environment. Variables
// already set win. An explicit path that cannot be read is reported on w;
// a missing ./.env is ignored.
func loadDotEnv(path string, w io.Writer) {
	if path == "" {
		_ = godotenv.Load()
		return
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(w, "warning: env file %s not found\n", path)
			return
		}
		fmt.Fprintf(w, "warning: env file %s: %v\n", path, err)
	}
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized PDFREPORT_* values.
func loadEnvConfig() *envConfig {
	return &envConfig{
		// Tier 1
		ConfigPath: os.Getenv("PDFREPORT_CONFIG"),
		Source:     os.Getenv("PDFREPORT_SOURCE"),
		MongoURI:   os.Getenv("PDFREPORT_MONGO_URI"),
		Output:     os.Getenv("PDFREPORT_OUTPUT"),
		Stamped:    os.Getenv("PDFREPORT_STAMPED"),
		// Tier 2
		SourceFormat:  os.Getenv("PDFREPORT_SOURCE_FORMAT"),
		MongoDatabase: os.Getenv("PDFREPORT_MONGO_DATABASE"),
		// Tier 3
		Logo:      os.Getenv("PDFREPORT_LOGO"),
		Title:     os.Getenv("PDFREPORT_TITLE"),
		Currency:  os.Getenv("PDFREPORT_CURRENCY"),
		TitleFont: os.Getenv("PDFREPORT_TITLE_FONT"),
		Renderer:  os.Getenv("PDFREPORT_RENDERER"),
		Timeout:   os.Getenv("PDFREPORT_TIMEOUT"),
		Cron:      os.Getenv("PDFREPORT_CRON"),
		LogLevel:  os.Getenv("PDFREPORT_LOG_LEVEL"),
		LogFormat: os.Getenv("PDFREPORT_LOG_FORMAT"),
	}
}

// warnUnknownEnvVars logs warnings for unrecognized PDFREPORT_* variables.
// Helps catch typos like PDFREPORT_MONGOURI instead of PDFREPORT_MONGO_URI.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "PDFREPORT_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies set environment variables over the config file.
// Order: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	// Tier 1
	override(&cfg.Source.Path, env.Source)
	override(&cfg.Source.Mongo.URI, env.MongoURI)
	override(&cfg.Output.Report, env.Output)
	override(&cfg.Output.Stamped, env.Stamped)

	// Tier 2
	override(&cfg.Source.Format, env.SourceFormat)
	override(&cfg.Source.Mongo.Database, env.MongoDatabase)

	// Tier 3
	override(&cfg.Logo.Path, env.Logo)
	override(&cfg.Report.Title, env.Title)
	override(&cfg.Report.Currency, env.Currency)
	override(&cfg.Report.TitleFont, env.TitleFont)
	override(&cfg.Report.Renderer, env.Renderer)
	override(&cfg.Report.Timeout, env.Timeout)
	override(&cfg.Schedule.Cron, env.Cron)
	override(&cfg.Log.Level, env.LogLevel)
	override(&cfg.Log.Format, env.LogFormat)
}
