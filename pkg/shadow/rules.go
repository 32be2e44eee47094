package shadow

import (
	"math"
)

// Kind names how a field is compared.
type Kind string

const (
	KindExact    Kind = "exact"
	KindNumeric  Kind = "numeric"
	KindSet      Kind = "set"
	KindOptional Kind = "optional_numeric"
)

// Rule compares one field of T. Only fields with a Rule are compared.
type Rule[T any] struct {
	Name      string
	Kind      Kind
	Tolerance float64

	// diff returns the two rendered values and whether they differ.
	// tol is the effective tolerance after overrides.
	diff func(legacy, next T, tol float64) (lv, nv any, differs bool)
}

// Exact compares a comparable field with ==.
func Exact[T any, V comparable](name string, get func(T) V) Rule[T] {
	return Rule[T]{
		Name: name,
		Kind: KindExact,
		diff: func(legacy, next T, _ float64) (any, any, bool) {
			lv, nv := get(legacy), get(next)
			return lv, nv, lv != nv
		},
	}
}

// Numeric compares a number allowing |legacy-new| <= tolerance.
func Numeric[T any](name string, get func(T) float64, tolerance float64) Rule[T] {
	return Rule[T]{
		Name:      name,
		Kind:      KindNumeric,
		Tolerance: tolerance,
		diff: func(legacy, next T, tol float64) (any, any, bool) {
			lv, nv := get(legacy), get(next)
			return lv, nv, !withinTolerance(lv, nv, tol)
		},
	}
}

// OptionalNumeric is Numeric for values that may be absent.
// Two absent values are equal; absent and present always differ.
func OptionalNumeric[T any](name string, get func(T) *float64, tolerance float64) Rule[T] {
	return Rule[T]{
		Name:      name,
		Kind:      KindOptional,
		Tolerance: tolerance,
		diff: func(legacy, next T, tol float64) (any, any, bool) {
			lp, np := get(legacy), get(next)
			lv, nv := deref(lp), deref(np)
			switch {
			case lp == nil && np == nil:
				return lv, nv, false
			case lp == nil || np == nil:
				return lv, nv, true
			}
			return lv, nv, !withinTolerance(*lp, *np, tol)
		},
	}
}

// Set compares a slice as an unordered set; order and duplicates are ignored.
func Set[T any, E comparable](name string, get func(T) []E) Rule[T] {
	return Rule[T]{
		Name: name,
		Kind: KindSet,
		diff: func(legacy, next T, _ float64) (any, any, bool) {
			lv, nv := get(legacy), get(next)
			return lv, nv, !sameSet(lv, nv)
		},
	}
}

func withinTolerance(a, b, tol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= tol
}

func deref(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func sameSet[E comparable](a, b []E) bool {
	left := make(map[E]struct{}, len(a))
	for _, v := range a {
		left[v] = struct{}{}
	}
	right := make(map[E]struct{}, len(b))
	for _, v := range b {
		if _, ok := left[v]; !ok {
			return false
		}
		right[v] = struct{}{}
	}
	return len(left) == len(right)
}
