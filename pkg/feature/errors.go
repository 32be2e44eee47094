package feature

import "errors"

var (
	// ErrInvalidFlag indicates that the provided flag parameters are invalid.
	ErrInvalidFlag = errors.New("invalid feature flag parameters")

	// ErrInvalidStrategy indicates an issue with the rollout strategy configuration.
	ErrInvalidStrategy = errors.New("invalid feature rollout strategy")

	// ErrSourceFailed indicates a flag source could not answer a lookup.
	ErrSourceFailed = errors.New("feature source lookup failed")

	// ErrInvalidFlagFile indicates the flag file could not be read or parsed.
	ErrInvalidFlagFile = errors.New("invalid feature flag file")
)
