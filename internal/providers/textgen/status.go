package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"promptsmith/internal/domain"
)

// statusError classifies an HTTP status returned by a provider. Rate limits
// and server errors are transient; every other non-2xx status is not.
func statusError(provider string, status int, detail string) *domain.GenerationError {
	return statusErrorWrap(provider, status, errors.New(detail))
}

func statusErrorWrap(provider string, status int, err error) *domain.GenerationError {
	return &domain.GenerationError{
		Provider:   provider,
		StatusCode: status,
		Retryable:  retryableStatus(status),
		Err:        err,
	}
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500
}

// callError classifies a failure that carried no HTTP status. Timeouts and
// transport errors are transient; a response that does not decode is not.
func callError(provider string, err error) *domain.GenerationError {
	return &domain.GenerationError{Provider: provider, Retryable: transportFailure(err), Err: err}
}

func transportFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if decodeFailure(err) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func decodeFailure(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
