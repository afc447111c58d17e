package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/evalboard/internal/adapters/storage"
	service "github.com/okian/evalboard/internal/app"
)

// ErrBadRequest marks a request the handlers rejected before querying.
var ErrBadRequest = errors.New("bad request")

// Wrap annotates err with the operation that failed.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// apiError is the client-facing translation of an upstream error.
type apiError struct {
	status  int
	code    string
	message string
}

// translate maps service and storage errors to a status, a stable code and a
// short message that never leaks backend details.
func translate(err error) apiError {
	switch {
	case errors.Is(err, ErrBadRequest):
		return apiError{http.StatusBadRequest, "bad_request", "malformed request"}
	case errors.Is(err, service.ErrInvalidLimit):
		return apiError{http.StatusBadRequest, "invalid_limit", "limit is out of range"}
	case errors.Is(err, service.ErrInvalidView):
		return apiError{http.StatusBadRequest, "invalid_view", "view must be all or latest"}
	case errors.Is(err, service.ErrParticipantNotFound):
		return apiError{http.StatusNotFound, "not_found", "participant not found"}
	case errors.Is(err, storage.ErrStorageUnavailable):
		return apiError{http.StatusServiceUnavailable, "storage_unavailable", "evaluation storage is temporarily unavailable, retry shortly"}
	case errors.Is(err, storage.ErrNoRecords):
		return apiError{http.StatusBadGateway, "malformed_records", "no evaluation record could be decoded"}
	case errors.Is(err, service.ErrServiceNotStarted):
		return apiError{http.StatusServiceUnavailable, "unavailable", "service is not ready"}
	case errors.Is(err, context.DeadlineExceeded):
		return apiError{http.StatusGatewayTimeout, "timeout", "query timed out"}
	case errors.Is(err, context.Canceled):
		return apiError{http.StatusServiceUnavailable, "canceled", "query canceled"}
	default:
		return apiError{http.StatusInternalServerError, "internal_error", "internal server error"}
	}
}
