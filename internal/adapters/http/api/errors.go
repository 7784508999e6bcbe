package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrMissingVoter = errors.New("missing X-Voter header")
)

// Error codes returned in the body of failed requests.
const (
	codeBadRequest    = "bad_request"
	codeInvalidConfig = "invalid_configuration"
	codeForbidden     = "forbidden"
	codeNotFound      = "not_found"
	codeConflict      = "conflict"
	codeBackpressure  = "backpressure"
	codeUnavailable   = "unavailable"
	codeTimeout       = "timeout"
	codeInternal      = "internal_error"
)

// classify maps a service error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, model.ErrConfiguration):
		return http.StatusBadRequest, codeInvalidConfig
	case errors.Is(err, ErrMissingVoter), errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict, codeConflict
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests, codeBackpressure
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
