package source

import "errors"

// Sentinel errors for record sources.
var (
	ErrUnsupportedFormat = errors.New("unsupported source format")
	ErrMissingPath       = errors.New("source path is required")
	ErrMissingColumn     = errors.New("required column missing")
	ErrInvalidRecord     = errors.New("invalid purchase record")
	ErrConnect           = errors.New("failed to connect to data source")
	ErrQuery             = errors.New("failed to query purchases")
)
