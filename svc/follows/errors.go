package follows

import "errors"

var (
	// ErrSignInRequired is returned when an anonymous caller tries to follow.
	ErrSignInRequired = errors.New("follows: sign in to follow users")
	// ErrOwnProfile is returned when a caller tries to follow themselves.
	ErrOwnProfile = errors.New("follows: cannot follow your own profile")
)
