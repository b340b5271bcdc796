package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error   string `json:"error"`   // code from codes.go
	Message string `json:"message"` // human readable
}

// RespondWithError writes the error body and aborts the handler chain.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// Shorthands for the common statuses

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication credentials were not provided"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You do not have permission to perform this action"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	if message == "" {
		message = "Not found"
	}
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func Unprocessable(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusUnprocessableEntity, errorCode, message)
}

func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "Request was throttled"
	}
	RespondWithError(c, http.StatusTooManyRequests, RateLimitExceeded, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error, please try again later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError carries per-field messages keyed by JSON name
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "Invalid input",
		Fields:  fields,
	})
}

// RespondWithBindError turns a binding failure into a validation body.
// Errors that are not field-level (malformed JSON) get a single "body" entry.
func RespondWithBindError(c *gin.Context, err error) {
	fields := FieldErrors(err)
	if len(fields) == 0 {
		fields = map[string]string{"body": err.Error()}
	}
	RespondWithValidationError(c, fields)
}
