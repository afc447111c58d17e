package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure returned by Validate.
	ErrInvalidConfig = errors.New("invalid evalboard configuration")
	// ErrLoadConfig wraps failures to read the config file or the environment.
	ErrLoadConfig = errors.New("cannot load evalboard configuration")
)
