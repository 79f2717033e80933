// Package dto defines the JSON bodies of the plain HTTP endpoints.
package dto

// APIError is the body of every error response.
type APIError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewAPIError creates an APIError.
func NewAPIError(message, details string) APIError {
	return APIError{Error: message, Details: details}
}

// NotFoundError creates a not found error response.
func NotFoundError(resource string) APIError {
	return NewAPIError(resource+" not found", "")
}

// BadRequestError creates a bad request error response.
func BadRequestError(message, details string) APIError {
	return NewAPIError(message, details)
}

// InternalError creates an internal server error response. Details are
// passed through so the web client can show them.
func InternalError(details string) APIError {
	return NewAPIError("Internal server error", details)
}
