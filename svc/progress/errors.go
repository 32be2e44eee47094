package progress

import "errors"

var (
	ErrSignInRequired = errors.New("progress: sign in to record progress")
	ErrInvalidPct     = errors.New("progress: pct must be between 0 and 100")
	ErrInvalidRating  = errors.New("progress: rating must be between 0 and 3")
)
