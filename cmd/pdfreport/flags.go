package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logFormat string
}

// sourceFlags holds record source flags.
type sourceFlags struct {
	format   string
	mongoURI string
	database string
}

// reportFlags holds report generation flags.
type reportFlags struct {
	output          string
	title           string
	date            string
	timestampFormat string
	currency        string
	titleFont       string
	renderer        string
	timeout         string
	assetPath       string
}

// logoFlags holds stamping flags.
type logoFlags struct {
	path       string
	stamped    string
	x          float64
	y          float64
	width      float64
	height     float64
	background string
}

// cliFlags holds the flags of every report command. Each command registers
// the groups it uses.
type cliFlags struct {
	sourcePath string // positional source argument
	common     commonFlags
	source     sourceFlags
	report     reportFlags
	logo       logoFlags
	cron       string
	once       bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-page details")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json")
}

// addSourceFlags adds record source flags to a FlagSet.
func addSourceFlags(fs *flag.FlagSet, f *sourceFlags) {
	fs.StringVar(&f.format, "format", "", "source format: csv, json, mongo (default: from path)")
	fs.StringVar(&f.mongoURI, "mongo-uri", "", "MongoDB connection string")
	fs.StringVar(&f.database, "mongo-db", "", "MongoDB database name")
}

// addReportFlags adds report flags to a FlagSet. The output flag is
// registered by the caller since stamp reuses -o.
func addReportFlags(fs *flag.FlagSet, f *reportFlags) {
	fs.StringVar(&f.title, "title", "", "report title")
	fs.StringVar(&f.date, "date", "", "date stamp: \"auto\", \"auto:FORMAT\" or literal")
	fs.StringVar(&f.timestampFormat, "timestamp-format", "", "purchase time format (e.g. YYYY-MM-DD HH:mm)")
	fs.StringVar(&f.currency, "currency", "", "currency code in the price header")
	fs.StringVar(&f.titleFont, "title-font", "", "TrueType font for the title")
	fs.StringVar(&f.renderer, "renderer", "", "renderer: fpdf, chrome")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "chrome renderer timeout (e.g. 30s, 2m)")
	fs.StringVar(&f.assetPath, "asset-path", "", "chrome template/style override directory")
}

// addLogoFlags adds stamping flags to a FlagSet.
func addLogoFlags(fs *flag.FlagSet, f *logoFlags) {
	fs.StringVar(&f.path, "logo", "", "logo image path (missing file = copy unchanged)")
	fs.Float64Var(&f.x, "logo-x", 0, "logo left edge in points")
	fs.Float64Var(&f.y, "logo-y", 0, "logo top edge in points")
	fs.Float64Var(&f.width, "logo-width", 0, "logo width in points")
	fs.Float64Var(&f.height, "logo-height", 0, "logo height in points")
	fs.StringVar(&f.background, "logo-bg", "", "logo backing color (hex)")
}

// newFlagSet returns a silent FlagSet; parse reports errors and help.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// parse wraps flag errors as usage errors. -h/--help prints the command
// usage and returns flag.ErrHelp.
func parse(fs *flag.FlagSet, args []string, usage func(io.Writer), w io.Writer) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(w)
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return fs.Args(), nil
}

// parseGenerateFlags parses generate command flags and returns positional args.
func parseGenerateFlags(args []string, env *Environment) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := newFlagSet("generate")
	fs.StringVarP(&f.report.output, "output", "o", "", "report PDF path")
	addCommonFlags(fs, &f.common)
	addSourceFlags(fs, &f.source)
	addReportFlags(fs, &f.report)

	pos, err := parse(fs, args, printGenerateUsage, env.Stdout)
	return f, pos, err
}

// parseStampFlags parses stamp command flags and returns positional args.
func parseStampFlags(args []string, env *Environment) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := newFlagSet("stamp")
	fs.StringVarP(&f.logo.stamped, "output", "o", "", "stamped PDF path")
	addCommonFlags(fs, &f.common)
	addLogoFlags(fs, &f.logo)

	pos, err := parse(fs, args, printStampUsage, env.Stdout)
	return f, pos, err
}

// addRunFlags registers the flags shared by run and schedule.
func addRunFlags(fs *flag.FlagSet, f *cliFlags) {
	fs.StringVarP(&f.report.output, "output", "o", "", "report PDF path")
	fs.StringVar(&f.logo.stamped, "stamped", "", "stamped PDF path")
	addCommonFlags(fs, &f.common)
	addSourceFlags(fs, &f.source)
	addReportFlags(fs, &f.report)
	addLogoFlags(fs, &f.logo)
}

// parseRunFlags parses run command flags and returns positional args.
func parseRunFlags(args []string, env *Environment) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := newFlagSet("run")
	addRunFlags(fs, f)

	pos, err := parse(fs, args, printRunUsage, env.Stdout)
	return f, pos, err
}

// parseScheduleFlags parses schedule command flags and returns positional args.
func parseScheduleFlags(args []string, env *Environment) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := newFlagSet("schedule")
	addRunFlags(fs, f)
	fs.StringVar(&f.cron, "cron", "", "cron spec (5 fields or @every/@daily)")
	fs.BoolVar(&f.once, "once", false, "run the job immediately before waiting")

	pos, err := parse(fs, args, printScheduleUsage, env.Stdout)
	return f, pos, err
}
