package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
}

// CustomError represents a custom application error
type CustomError struct {
	Code       string
	Message    string
	StatusCode int
	Details    map[string]interface{}
}

func (e CustomError) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// ErrorHandler renders the last error pushed with c.Error
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	log := logger.WithField("component", "http")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		handleError(c, log, c.Errors.Last().Err)
	}
}

func handleError(c *gin.Context, log *logrus.Entry, err error) {
	response := ErrorResponse{RequestID: c.GetString("request_id")}
	statusCode := http.StatusInternalServerError

	var customErr CustomError
	if errors.As(err, &customErr) {
		statusCode = customErr.StatusCode
		response.Error = customErr.Code
		response.Message = customErr.Message
		response.Details = customErr.Details
	} else {
		response.Error = ErrCodeInternalServer
		response.Message = "An unexpected error occurred"
	}

	entry := log.WithFields(logrus.Fields{
		"code":       response.Error,
		"status":     statusCode,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": response.RequestID,
	}).WithError(err)
	if statusCode >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	c.AbortWithStatusJSON(statusCode, response)
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details map[string]interface{}) CustomError {
	return CustomError{
		Code:       ErrCodeBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(details map[string]interface{}) CustomError {
	return CustomError{
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) CustomError {
	return CustomError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) CustomError {
	return CustomError{
		Code:       ErrCodeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) CustomError {
	return CustomError{
		Code:       ErrCodeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details map[string]interface{}) CustomError {
	return CustomError{
		Code:       ErrCodeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Details:    details,
	}
}

// NewUnavailableError is returned when a required backend is not configured
func NewUnavailableError(message string) CustomError {
	return CustomError{
		Code:       ErrCodeUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
	}
}
