// Package contract expresses the HTTP/SSE surface as Go types and pure
// mapping functions between wire DTOs and domain types. It stops one layer
// short of gin route registration; a router would wire these functions to
// gin.Context handlers.
package contract

import apperrors "github.com/ragforge/ragcore/pkg/errors"

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Endpoint   string `json:"endpoint,omitempty"`
}

// FromError maps a domain error to the HTTP status and body a handler
// should write. endpoint and limit are only surfaced on rate-limit
// responses, per the 429 body shape; the handler supplies limit from the
// rate limiter config it holds since AppError itself only carries the
// retry-after hint.
func FromError(err error, endpoint string, limit int) (status int, body ErrorResponse) {
	appErr, ok := apperrors.As(err)
	if !ok {
		return 500, ErrorResponse{Error: apperrors.CodeInternal, Message: err.Error()}
	}
	body = ErrorResponse{Error: appErr.Code, Message: appErr.Message}
	if appErr.Code == apperrors.CodeRateLimit {
		body.Error = "rate_limit_exceeded"
		body.RetryAfter = appErr.RetryAfter
		body.Endpoint = endpoint
		body.Limit = limit
	}
	return appErr.HTTPStatus(), body
}
