package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in the machine-readable "code" field of error
// responses. Clients rely on CodeTokenExpired being distinct from
// CodeInvalidToken to decide between refreshing and re-authenticating.
const (
	CodeNoCredentials   = "NO_CREDENTIALS"
	CodeBadScheme       = "BAD_SCHEME"
	CodeMalformedHeader = "MALFORMED_HEADER"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeUnknownSubject  = "UNKNOWN_SUBJECT"
	CodeNotOwner        = "NOT_OWNER"
	CodeNotFound        = "NOT_FOUND"
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewAuthError builds an authentication failure with a specific reason code
// so the 401 response stays machine-distinguishable.
func NewAuthError(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewNotOwnerError is the fixed authorization denial for mutating a
// resource owned by somebody else.
func NewNotOwnerError() *AppError {
	return &AppError{
		Code:    CodeNotOwner,
		Message: "You do not have permission to modify this resource",
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
