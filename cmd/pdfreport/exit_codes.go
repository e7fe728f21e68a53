package main

import (
	"context"
	"errors"
	"os"

	"github.com/alnah/go-pdfreport"
	"github.com/alnah/go-pdfreport/internal/config"
	"github.com/alnah/go-pdfreport/internal/dateutil"
	"github.com/alnah/go-pdfreport/internal/hints"
	"github.com/alnah/go-pdfreport/internal/source"
)

// Exit codes for pdfreport CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Report written, or nothing to report
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, unreadable input
	ExitBrowser = 4 // Browser/Chrome errors
	ExitSource  = 5 // Record source errors (MongoDB, malformed rows)
)

// ErrUsage marks invalid command lines.
var ErrUsage = errors.New("invalid usage")

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, pdfreport.ErrBrowserConnect) ||
		errors.Is(err, pdfreport.ErrPageCreate) ||
		errors.Is(err, pdfreport.ErrPageLoad) {
		return ExitBrowser
	}

	// Record source errors (exit 5)
	if errors.Is(err, source.ErrConnect) ||
		errors.Is(err, source.ErrQuery) ||
		errors.Is(err, source.ErrMissingColumn) ||
		errors.Is(err, source.ErrInvalidRecord) {
		return ExitSource
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrConfigExists) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, pdfreport.ErrUnknownRenderer) ||
		errors.Is(err, pdfreport.ErrInvalidGeometry) ||
		errors.Is(err, pdfreport.ErrInvalidColor) ||
		errors.Is(err, pdfreport.ErrInvalidColumns) ||
		errors.Is(err, pdfreport.ErrSameDocument) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, source.ErrUnsupportedFormat) ||
		errors.Is(err, source.ErrMissingPath) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, pdfreport.ErrSourceDocumentMissing) ||
		errors.Is(err, pdfreport.ErrLogoDecode) ||
		errors.Is(err, pdfreport.ErrFontLoad) {
		return ExitIO
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
// Config-not-found hints are attached where the searched paths are known.
func hintFor(err error) string {
	switch {
	case errors.Is(err, pdfreport.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, pdfreport.ErrPageLoad), errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, pdfreport.ErrSourceDocumentMissing):
		return hints.ForSourceDocument()
	case errors.Is(err, pdfreport.ErrLogoDecode):
		return hints.ForLogoImage()
	case errors.Is(err, source.ErrConnect):
		return hints.ForMongoConnect()
	case errors.Is(err, source.ErrUnsupportedFormat), errors.Is(err, source.ErrMissingPath):
		return hints.ForUnsupportedSource(source.Formats)
	case errors.Is(err, os.ErrPermission):
		return hints.ForOutputDirectory()
	}
	return ""
}
