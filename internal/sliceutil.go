// internal/sliceutil.go
//
// Set arithmetic over field-name slices. Every helper:
//   • returns a fresh slice, never aliases or mutates its input
//   • preserves the order of its FIRST argument, so callers control output order
// ----------------------------------------------------------------------------

package internal

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// ---------------------------------------------------------------------
// Membership
// ---------------------------------------------------------------------

// Contains reports whether v ∈ xs (O(n)).
func Contains[T comparable](xs []T, v T) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// Set builds a lookup table from xs.
func Set[T comparable](xs []T) map[T]struct{} {
	set := make(map[T]struct{}, len(xs))
	for _, x := range xs {
		set[x] = struct{}{}
	}
	return set
}

// ---------------------------------------------------------------------
// Transformations
// ---------------------------------------------------------------------

// Filter keeps values where pred(x) == true.
func Filter[T any](xs []T, pred func(T) bool) []T {
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		if pred(x) {
			out = append(out, x)
		}
	}
	return out
}

// Map applies f to each element and returns a new slice.
func Map[A any, B any](xs []A, f func(A) B) []B {
	out := make([]B, len(xs))
	for i, x := range xs {
		out[i] = f(x)
	}
	return out
}

// ---------------------------------------------------------------------
// Set-like helpers, ordered by the first argument
// ---------------------------------------------------------------------

// Unique dedups while preserving first-seen order.
func Unique[T comparable](xs []T) []T {
	seen := make(map[T]struct{}, len(xs))
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		if _, ok := seen[x]; !ok {
			seen[x] = struct{}{}
			out = append(out, x)
		}
	}
	return out
}

// Intersect returns the elements of a that also appear in b, in a's order.
func Intersect[T comparable](a, b []T) []T {
	set := Set(b)
	return Unique(Filter(a, func(x T) bool {
		_, ok := set[x]
		return ok
	}))
}

// Difference returns items in a that are NOT in b.
func Difference[T comparable](a, b []T) []T {
	set := Set(b)
	return Filter(a, func(x T) bool {
		_, ok := set[x]
		return !ok
	})
}

// ---------------------------------------------------------------------
// Maps
// ---------------------------------------------------------------------

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
