// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-pdfreport/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	// Detect CI environment
	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	// Suggest ROD_NO_SANDBOX for container/CI environments
	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	// Suggest ROD_BROWSER_BIN if not set
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the Chrome renderer timeout.
func ForTimeout() string {
	return format("for long reports, use --timeout or switch to --renderer fpdf")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-pdfreport/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml or run 'pdfreport config init'"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-pdfreport") {
			hint += " and save it as " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForSourceDocument returns hints when the report to stamp is missing or corrupt.
func ForSourceDocument() string {
	return format("run 'pdfreport generate' first, or pass the report path as argument")
}

// ForUnsupportedSource returns hints listing the record source formats.
func ForUnsupportedSource(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("supported sources: " + strings.Join(available, ", "))
}

// ForLogoImage returns hints for logo decoding errors.
func ForLogoImage() string {
	return format("supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP")
}

// ForMongoConnect returns hints for MongoDB connection errors.
func ForMongoConnect() string {
	var hints []string
	if os.Getenv("PDFREPORT_MONGO_URI") == "" {
		hints = append(hints, "set PDFREPORT_MONGO_URI or source.mongo.uri")
	}
	hints = append(hints, "check the server is reachable from this host")
	return formatHints(hints)
}

// ForEmptyReport returns a hint shown when no purchase records were found.
func ForEmptyReport() string {
	return format("no report was written; check the source contains purchases")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
