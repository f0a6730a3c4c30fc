package config

import "errors"

var (
	// ErrInvalidConfig marks a configuration that loaded but failed validation.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a failure reading the config file or environment.
	ErrLoadConfig = errors.New("load config failed")
)
