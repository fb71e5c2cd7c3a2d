package model

// APIResponse is the envelope every JSON endpoint answers with. Data and Error
// are mutually exclusive; Meta rides along on paginated listings.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

// APIError is the wire shape of a failure. Code is a stable machine-readable
// identifier (UNAUTHORIZED, BANNED, NOT_FOUND, ...); Message is for humans.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta carries pagination state for list endpoints.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
