// Package routes defines HTTP route constants for the draft host.
package routes

const (
	RootPath = "/"
	SSEPath  = "/sse"

	// Draft API
	APIDraft        = "/api/draft"
	APIDraftPreview = "/api/draft/preview"
	APIPreviewCSS   = "/api/draft/preview.css"
	APIHealth       = "/api/health"
)
