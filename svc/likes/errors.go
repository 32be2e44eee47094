package likes

import "errors"

// ErrSignInRequired is returned when an anonymous caller tries to like.
var ErrSignInRequired = errors.New("likes: sign in to like wigg points")
