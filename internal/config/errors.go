package config

const (
	// Storage errors
	ErrOpenStoreFmt       = "Failed to open draft store: %v"
	ErrStorageUnavailable = "Draft storage unavailable"
	ErrDraftNotSaved      = "Draft not saved"
	ErrDraftNotDeleted    = "Draft not deleted"
	ErrDraftNotFound      = "Draft not found"

	// Config errors
	ErrLoadConfigFmt = "Failed to load config: %v"

	// Request errors
	ErrInvalidDraftBody = "Invalid draft body"
)
