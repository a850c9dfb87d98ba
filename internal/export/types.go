// Package export renders a property report and prints it to PDF through
// headless Chrome.
package export

import "errors"

// Request contains parameters for an export operation.
type Request struct {
	PropertyID    string
	IncludeEvents bool
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrContentUnavailable indicates report data could not be loaded.
	ErrContentUnavailable = errors.New("export content unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
