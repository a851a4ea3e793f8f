package docfold

import "errors"

// Sentinel errors for library operations.
var (
	// Configuration validation errors.
	ErrInvalidPageSize      = errors.New("invalid page size")
	ErrMissingCustomSize    = errors.New("custom page size requires width and height")
	ErrMissingCustomMargins = errors.New("custom margin mode requires all four margins")
	ErrInvalidMarginMode    = errors.New("invalid margin mode")
	ErrInvalidScale         = errors.New("scale must be between 0 and 100")

	// Session errors.
	ErrNoDocuments  = errors.New("no documents to export")
	ErrSessionState = errors.New("operation not valid in current session state")
	ErrWritePDF     = errors.New("failed to write PDF file")
)
