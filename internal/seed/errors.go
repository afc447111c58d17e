package seed

import "errors"

var (
	// ErrInvalidConfig is returned for unusable run settings.
	ErrInvalidConfig = errors.New("invalid seed config")
	// ErrUnhealthy is returned when the service health check fails.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrVerification is returned when the served leaderboard breaks an ordering invariant.
	ErrVerification = errors.New("leaderboard verification failed")
)
