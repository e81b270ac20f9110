// Package aggregate folds verification records into summary figures.
package aggregate

import "sort"

// Filter returns the items for which keep is true, preserving order.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Count returns how many items satisfy pred.
func Count[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// Mean averages the values reported present by value. It returns 0 when no
// item carries a value.
func Mean[T any](items []T, value func(T) (float64, bool)) float64 {
	var sum float64
	var n int
	for _, it := range items {
		if v, ok := value(it); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// SortedBy returns a copy of items stably sorted so that less(a, b) holds for
// earlier elements.
func SortedBy[T any](items []T, less func(a, b T) bool) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Deref reads an optional float.
func Deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
