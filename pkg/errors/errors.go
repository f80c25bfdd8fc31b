package errors

import "errors"

// Error kind codes. These are the ten kinds the service distinguishes;
// handlers map them to transport-specific status codes.
const (
	CodeValidation = "validation"
	CodeAuth       = "auth"
	CodeForbidden  = "forbidden"
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
	CodeRateLimit  = "rate_limit"
	CodeUpstream   = "upstream"
	CodeParse      = "parse"
	CodeTimeout    = "timeout"
	CodeInternal   = "internal"
)

// httpStatus maps each kind to the status a transport layer should use.
var httpStatus = map[string]int{
	CodeValidation: 422,
	CodeAuth:       401,
	CodeForbidden:  403,
	CodeNotFound:   404,
	CodeConflict:   409,
	CodeRateLimit:  429,
	CodeUpstream:   502,
	CodeParse:      422,
	CodeTimeout:    504,
	CodeInternal:   500,
}

// AppError encodes domain specific error details.
type AppError struct {
	Code       string
	Message    string
	Err        error
	RetryAfter int // seconds; meaningful only for CodeRateLimit
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code a transport should respond with.
func (e *AppError) HTTPStatus() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return 500
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// New produces a new AppError instance without a wrapped cause.
func New(code, message string) error {
	return &AppError{Code: code, Message: message}
}

// RateLimited produces a CodeRateLimit AppError carrying a retry hint.
func RateLimited(message string, retryAfterSeconds int) error {
	return &AppError{Code: CodeRateLimit, Message: message, RetryAfter: retryAfterSeconds}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As extracts the *AppError from err, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
