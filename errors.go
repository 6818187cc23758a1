package printables

import "errors"

// Sentinel errors for library operations.
var (
	ErrMissingRequiredAsset = errors.New("no image available")
	ErrUnsupportedKind      = errors.New("unsupported resource type")
	ErrEmptyContent         = errors.New("content cannot be empty")
	ErrInvalidContent       = errors.New("invalid content")
	ErrPDFGeneration        = errors.New("PDF generation failed")
	ErrBrowserConnect       = errors.New("failed to connect to browser")
	ErrPageCreate           = errors.New("failed to create browser page")
	ErrPageLoad             = errors.New("failed to load page")

	// Document options validation errors.
	ErrInvalidCardsPerPage = errors.New("invalid cards per page")
	ErrInvalidOrientation  = errors.New("invalid orientation")
	ErrInvalidBackend      = errors.New("invalid backend")

	// Style validation errors.
	ErrInvalidStyle        = errors.New("invalid style")
	ErrInvalidColor        = errors.New("invalid color")
	ErrInvalidTextPosition = errors.New("invalid text position")

	// Style preset loading errors.
	ErrPresetNotFound   = errors.New("style preset not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
