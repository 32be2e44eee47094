package shadow

import "errors"

var (
	ErrInvalidTolerances = errors.New("shadow: invalid tolerance file")
	ErrInvalidRateConfig = errors.New("shadow: invalid rate monitor config")
)
