package coexist

import "errors"

var (
	// ErrUnmounted is returned by operations on a closed hook.
	ErrUnmounted = errors.New("coexist: hook is unmounted")
	// ErrNoEntity is returned by Mutate before Use has selected an id.
	ErrNoEntity = errors.New("coexist: no entity selected")
	// ErrComparatorType is the panic value when WithComparator's type does not match the factory.
	ErrComparatorType = errors.New("coexist: comparator type does not match factory")
)
