package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
)

// APIError represents an API error response.
// Fields is set for validation failures and maps each field to its messages.
type APIError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeStudentNotFound  = "STUDENT_NOT_FOUND"
	CodeAccountNotFound  = "ACCOUNT_NOT_FOUND"
	CodeNotFound         = "NOT_FOUND"
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"
	CodeInternalError    = "INTERNAL_ERROR"
)

// Messages for errors that surface on a form field
const (
	MsgInvalidCredentials = "These credentials do not match our records."
	MsgValidationFailed   = "The given data was invalid."
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var verr *model.ValidationError
	if errors.As(err, &verr) && !verr.Empty() {
		return validationFailed(verr.Fields)
	}

	var conflict *model.ConflictError
	if errors.As(err, &conflict) {
		return validationFailed(map[string][]string{
			conflict.Field: {"The" + conflict.Error()[len("the"):] + "."},
		})
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		return validationFailed(map[string][]string{"handle": {MsgInvalidCredentials}})
	case errors.Is(err, model.ErrInvalidInput):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeValidationFailed, Message: MsgValidationFailed}}
	case errors.Is(err, model.ErrStudentNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeStudentNotFound, Message: "Student record not found"}}
	case errors.Is(err, model.ErrAccountNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeAccountNotFound, Message: "Account not found"}}
	case errors.Is(err, model.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Unauthenticated."}}
	case errors.Is(err, model.ErrForbidden):
		return &httpError{http.StatusForbidden, APIError{Code: CodeForbidden, Message: "This action is unauthorized."}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

func validationFailed(fields map[string][]string) *httpError {
	return &httpError{http.StatusUnprocessableEntity, APIError{
		Code:    CodeValidationFailed,
		Message: firstMessage(fields),
		Fields:  fields,
	}}
}

// firstMessage picks the message of the first field in a stable order
func firstMessage(fields map[string][]string) string {
	verr := &model.ValidationError{Fields: fields}
	return verr.Error()
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Unauthenticated."}}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) error {
	return &httpError{http.StatusNotFound, APIError{Code: CodeNotFound, Message: message}}
}

// NewTooManyRequestsError creates a rate limit error
func NewTooManyRequestsError() error {
	return &httpError{http.StatusTooManyRequests, APIError{Code: CodeTooManyRequests, Message: "Too Many Attempts."}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
