package storage

import "errors"

// Sentinel kinds for record store errors.
var (
	// ErrStorageUnavailable means the backing store could not be listed or
	// none of its objects could be fetched. It is transient; callers retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrMalformedRecord marks an object that was fetched but could not be decoded.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrNoRecords is joined with ErrMalformedRecord when every listed object
	// failed to decode.
	ErrNoRecords = errors.New("no decodable records")
	// ErrFetchFailed marks a single object that could not be read.
	ErrFetchFailed = errors.New("object fetch failed")
	// ErrObjectNotFound is returned by backends for a missing key.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidConfig is returned when a backend is built with missing settings.
	ErrInvalidConfig = errors.New("invalid storage configuration")
)
