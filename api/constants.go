package api

const (
	// DefaultFilePermissions for temp directory creation
	DefaultFilePermissions = 0755

	// MaxErrorLength caps the error text returned to clients
	MaxErrorLength = 200

	// RejectedPagesHeader lists page tokens that were ignored during extraction
	RejectedPagesHeader = "X-Rejected-Pages"
)
