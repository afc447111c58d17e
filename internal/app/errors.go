package service

import "errors"

// Sentinel kinds for query service errors.
var (
	ErrServiceNotStarted   = errors.New("service not started")
	ErrNoSource            = errors.New("record source is required")
	ErrInvalidLimit        = errors.New("invalid leaderboard limit")
	ErrInvalidView         = errors.New("invalid leaderboard view")
	ErrParticipantNotFound = errors.New("participant not found")
)
