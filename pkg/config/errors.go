package config

import "errors"

var (
	// ErrConfigFileNotFound is returned when the config file does not exist.
	ErrConfigFileNotFound = errors.New("config: file not found")

	// ErrInvalidConfig is returned when a loaded config fails validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)
