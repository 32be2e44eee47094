package config

import "errors"

var (
	// ErrParsingConfig wraps env decoding failures such as a missing required variable.
	ErrParsingConfig = errors.New("config: cannot decode environment")

	// ErrConfigNotLoaded is returned when a concurrent Load for the same type failed.
	ErrConfigNotLoaded = errors.New("config: not loaded")

	// ErrNilPointer is returned when Load receives a nil target.
	ErrNilPointer = errors.New("config: nil target")

	// ErrEnvFile is returned when a dotenv file passed via WithEnvFiles cannot be read.
	ErrEnvFile = errors.New("config: cannot read env file")
)
