package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfreport <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate   Build the purchase report PDF from a record source")
	fmt.Fprintln(w, "  stamp      Overlay the company logo on every page of a report")
	fmt.Fprintln(w, "  run        Generate, then stamp")
	fmt.Fprintln(w, "  schedule   Run generate+stamp on a cron schedule")
	fmt.Fprintln(w, "  config     Write or show configuration")
	fmt.Fprintln(w, "  doctor     Check system configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pdfreport help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show per-page details")
	fmt.Fprintln(w, "      --log-format <s>      Log format: console, json")
}

func printSourceFlags(w io.Writer) {
	fmt.Fprintln(w, "Source:")
	fmt.Fprintln(w, "      --format <s>          Source format: csv, json, mongo (default: from path)")
	fmt.Fprintln(w, "      --mongo-uri <uri>     MongoDB connection string")
	fmt.Fprintln(w, "      --mongo-db <name>     MongoDB database")
}

func printReportFlags(w io.Writer) {
	fmt.Fprintln(w, "Report:")
	fmt.Fprintln(w, "      --title <s>           Page title")
	fmt.Fprintln(w, "      --date <s>            Date stamp: \"auto\", \"auto:FORMAT\", or literal")
	fmt.Fprintln(w, "                            Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D")
	fmt.Fprintln(w, "                            Use [text] to escape literals: [Report date: ]YYYY-MM-DD")
	fmt.Fprintln(w, "      --timestamp-format <s> Purchase time format (adds HH, mm, ss)")
	fmt.Fprintln(w, "      --currency <code>     Currency in the price header")
	fmt.Fprintln(w, "      --title-font <path>   TrueType font for the title")
	fmt.Fprintln(w, "      --renderer <s>        Renderer: fpdf (default), chrome")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Chrome renderer timeout (e.g. 30s, 2m)")
	fmt.Fprintln(w, "      --asset-path <dir>    Chrome template/style override directory")
}

func printLogoFlags(w io.Writer) {
	fmt.Fprintln(w, "Logo:")
	fmt.Fprintln(w, "      --logo <path>         Logo image (missing file = copy unchanged)")
	fmt.Fprintln(w, "      --logo-x <pt>         Left edge in points from the page's left side")
	fmt.Fprintln(w, "      --logo-y <pt>         Top edge in points from the page's top side")
	fmt.Fprintln(w, "      --logo-width <pt>     Logo width in points")
	fmt.Fprintln(w, "      --logo-height <pt>    Logo height in points")
	fmt.Fprintln(w, "      --logo-bg <hex>       Backing color behind the logo")
}

// printGenerateUsage prints usage for the generate command.
func printGenerateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfreport generate [source] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build the purchase report PDF. Records are listed newest first,")
	fmt.Fprintln(w, "16 rows per page, with title and date stamp on every page.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  source    CSV or JSON file (optional with source.path or a MongoDB URI)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Report PDF path")
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	printSourceFlags(w)
	fmt.Fprintln(w)
	printReportFlags(w)
}

// printStampUsage prints usage for the stamp command.
func printStampUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfreport stamp [report.pdf] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Overlay the logo on every page and write a new PDF. The input report")
	fmt.Fprintln(w, "is never modified.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  report.pdf    Report to stamp (default: output.report)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Stamped PDF path")
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	printLogoFlags(w)
}

func printRunFlags(w io.Writer) {
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Report PDF path")
	fmt.Fprintln(w, "      --stamped <path>      Stamped PDF path")
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	printSourceFlags(w)
	fmt.Fprintln(w)
	printReportFlags(w)
	fmt.Fprintln(w)
	printLogoFlags(w)
}

// printRunUsage prints usage for the run command.
func printRunUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfreport run [source] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate the report, then stamp it. Stamping is skipped when the")
	fmt.Fprintln(w, "source holds no purchases.")
	fmt.Fprintln(w)
	printRunFlags(w)
}

// printScheduleUsage prints usage for the schedule command.
func printScheduleUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfreport schedule [source] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run generate+stamp on a cron schedule until interrupted.")
	fmt.Fprintln(w, "A run still in progress when the next one is due is skipped.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Schedule:")
	fmt.Fprintln(w, "      --cron <spec>         Cron spec: 5 fields, @daily, @every 1h")
	fmt.Fprintln(w, "      --once                Run immediately, then wait for the schedule")
	fmt.Fprintln(w)
	printRunFlags(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfreport config <init|show> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Subcommands:")
	fmt.Fprintln(w, "  init    Write the default configuration as YAML")
	fmt.Fprintln(w, "  show    Print the effective configuration (file + environment)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       init: file to write (default: stdout)")
	fmt.Fprintln(w, "      --force               init: overwrite an existing file")
	fmt.Fprintln(w, "  -c, --config <name>       show: config file name or path")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfreport doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check renderer, source, logo and output configuration.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --json                Output in JSON format")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "generate":
		printGenerateUsage(env.Stdout)
	case "stamp":
		printStampUsage(env.Stdout)
	case "run":
		printRunUsage(env.Stdout)
	case "schedule":
		printScheduleUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: pdfreport version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: pdfreport help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
