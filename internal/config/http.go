package config

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"
	HLastModified = "Last-Modified"

	CTypeHTML  = "text/html"
	CTypeJSON  = "application/json"
	CTypeEvent = "text/event-stream"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)
