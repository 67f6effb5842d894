package utils

import "net/http"

// Machine-stable failure reasons carried by every error response.
const (
	ReasonValidationFailed = "validation_failed"
	ReasonUnauthenticated  = "unauthenticated"
	ReasonForbidden        = "forbidden"
	ReasonNotFound         = "not_found"
	ReasonConflict         = "conflict"
	ReasonRateLimited      = "rate_limited"
	ReasonInternalError    = "internal_error"
)

// Response represents a standardized response structure.
// It includes a status code, a message, and data.
type Response struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data"` // Ensure data is always present, even if nil (will be null in JSON)
}

// NewResponse creates a new Response instance.
func NewResponse(status int, message string, data interface{}) Response {
	resp := Response{
		Success: status < http.StatusBadRequest,
		Status:  status,
		Message: message,
		Data:    data,
	}
	if !resp.Success {
		resp.Reason = ReasonForStatus(status)
	}
	return resp
}

// NewSuccessResponse creates a new success Response instance.
// Defaults status to 200 (OK).
func NewSuccessResponse(message string, data interface{}) Response {
	return NewResponse(http.StatusOK, message, data)
}

// NewErrorResponse creates a new error Response instance.
// Data is explicitly set to nil.
func NewErrorResponse(status int, message string) Response {
	return NewResponse(status, message, nil)
}

func ReasonForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ReasonValidationFailed
	case http.StatusUnauthorized:
		return ReasonUnauthenticated
	case http.StatusForbidden:
		return ReasonForbidden
	case http.StatusNotFound:
		return ReasonNotFound
	case http.StatusConflict:
		return ReasonConflict
	case http.StatusTooManyRequests:
		return ReasonRateLimited
	default:
		return ReasonInternalError
	}
}
