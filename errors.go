package pdfreport

import "errors"

// Sentinel errors for library operations.
var (
	// Layout and composition errors.
	ErrInvalidGeometry    = errors.New("invalid page geometry")
	ErrInvalidRecordCount = errors.New("invalid record count")
	ErrInvalidColumns     = errors.New("invalid table columns")
	ErrInvalidColor       = errors.New("invalid color")
	ErrEmptyInput         = errors.New("no purchase records to render")

	// Document lifecycle errors.
	ErrDocumentFinalized = errors.New("document already finalized")
	ErrUnknownRenderer   = errors.New("unknown renderer")
	ErrFontLoad          = errors.New("failed to load font")

	// Rendering errors.
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Stamping errors.
	ErrSourceDocumentMissing = errors.New("source document missing or unreadable")
	ErrSameDocument          = errors.New("stamped output must differ from source document")
	ErrLogoDecode            = errors.New("failed to decode logo image")
)
