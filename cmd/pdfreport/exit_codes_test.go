package main

// Notes:
// - exitCodeFor: we test the sentinel errors of every package the CLI
//   calls, plus wrapped errors to verify the errors.Is() chain.
// - hintFor: we test which errors carry a hint. Hint wording is tested in
//   internal/hints.
// - Exit code constants: we verify Unix conventions (0=success, 1=general, 2=usage)
//   and custom codes are below 126.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/alnah/go-pdfreport"
	"github.com/alnah/go-pdfreport/internal/config"
	"github.com/alnah/go-pdfreport/internal/dateutil"
	"github.com/alnah/go-pdfreport/internal/source"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		// Success
		{"nil error", nil, ExitSuccess},

		// Browser errors (exit 4)
		{"browser connect", pdfreport.ErrBrowserConnect, ExitBrowser},
		{"page create", pdfreport.ErrPageCreate, ExitBrowser},
		{"page load", pdfreport.ErrPageLoad, ExitBrowser},
		{"wrapped browser connect", fmt.Errorf("generating report: %w", pdfreport.ErrBrowserConnect), ExitBrowser},

		// Source errors (exit 5)
		{"source connect", source.ErrConnect, ExitSource},
		{"source query", source.ErrQuery, ExitSource},
		{"missing column", source.ErrMissingColumn, ExitSource},
		{"invalid record", source.ErrInvalidRecord, ExitSource},
		{"wrapped invalid record", fmt.Errorf("loading records: %w", source.ErrInvalidRecord), ExitSource},

		// Usage/config/validation errors (exit 2)
		{"usage", ErrUsage, ExitUsage},
		{"invalid extension", ErrInvalidExtension, ExitUsage},
		{"config exists", ErrConfigExists, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid config value", config.ErrInvalidValue, ExitUsage},
		{"unknown renderer", pdfreport.ErrUnknownRenderer, ExitUsage},
		{"invalid geometry", pdfreport.ErrInvalidGeometry, ExitUsage},
		{"invalid color", pdfreport.ErrInvalidColor, ExitUsage},
		{"invalid columns", pdfreport.ErrInvalidColumns, ExitUsage},
		{"same document", pdfreport.ErrSameDocument, ExitUsage},
		{"invalid date format", dateutil.ErrInvalidDateFormat, ExitUsage},
		{"unsupported source", source.ErrUnsupportedFormat, ExitUsage},
		{"missing source path", source.ErrMissingPath, ExitUsage},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"source document", pdfreport.ErrSourceDocumentMissing, ExitIO},
		{"logo decode", pdfreport.ErrLogoDecode, ExitIO},
		{"font load", pdfreport.ErrFontLoad, ExitIO},
		{"wrapped file not exist", fmt.Errorf("opening: %w", os.ErrNotExist), ExitIO},

		// General errors (exit 1)
		{"pdf generation", pdfreport.ErrPDFGeneration, ExitGeneral},
		{"canceled", context.Canceled, ExitGeneral},
		{"unknown", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeConstants - Unix conventions
// ---------------------------------------------------------------------------

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("standard codes = %d/%d/%d, want 0/1/2", ExitSuccess, ExitGeneral, ExitUsage)
	}
	seen := map[int]bool{}
	for _, code := range []int{ExitSuccess, ExitGeneral, ExitUsage, ExitIO, ExitBrowser, ExitSource} {
		if code >= 126 {
			t.Errorf("exit code %d collides with shell reserved codes", code)
		}
		if seen[code] {
			t.Errorf("duplicate exit code %d", code)
		}
		seen[code] = true
	}
}

// ---------------------------------------------------------------------------
// TestHintFor - Actionable hints
// ---------------------------------------------------------------------------

func TestHintFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string // substring; "" means no hint
	}{
		{"page load", pdfreport.ErrPageLoad, "--timeout"},
		{"deadline", fmt.Errorf("generating: %w", context.DeadlineExceeded), "--timeout"},
		{"source document", pdfreport.ErrSourceDocumentMissing, "pdfreport generate"},
		{"logo", pdfreport.ErrLogoDecode, "PNG"},
		{"mongo", source.ErrConnect, "reachable"},
		{"unsupported source", source.ErrUnsupportedFormat, "csv, json, mongo"},
		{"missing path", source.ErrMissingPath, "csv, json, mongo"},
		{"permission", os.ErrPermission, "writable"},
		{"no hint", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := hintFor(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("hintFor() = %q, want none", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("hintFor() = %q, want substring %q", got, tt.want)
			}
		})
	}
}
