// Package collection provides generic, functional-style helpers for slices.
//
// Usage:
//
//	sales := collection.Filter(txs, func(t models.StockTransaction) bool { return t.ChangeType == models.Sale })
//	dups := collection.DuplicateIndexes(options, func(o models.OptionEntry) string { return o.Key() })
package collection

import "sort"

// Filter returns elements of s for which fn returns true.
func Filter[T any](s []T, fn func(T) bool) []T {
	var out []T
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// First returns the first element matching fn, or (zero, false).
func First[T any](s []T, fn func(T) bool) (T, bool) {
	for _, v := range s {
		if fn(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Contains reports whether any element of s satisfies fn.
func Contains[T any](s []T, fn func(T) bool) bool {
	_, ok := First(s, fn)
	return ok
}

// GroupBy partitions s into a map keyed by the value returned by fn.
func GroupBy[T any, K comparable](s []T, fn func(T) K) map[K][]T {
	out := make(map[K][]T)
	for _, v := range s {
		k := fn(v)
		out[k] = append(out[k], v)
	}
	return out
}

// DuplicateIndexes returns the indexes of elements whose key already appeared
// earlier in s. Elements for which skip returns true never count, neither as
// the first occurrence nor as a repeat.
func DuplicateIndexes[T any, K comparable](s []T, key func(T) K, skip ...func(T) bool) []int {
	seen := make(map[K]struct{}, len(s))
	var out []int
	for i, v := range s {
		if len(skip) > 0 && skip[0](v) {
			continue
		}
		k := key(v)
		if _, ok := seen[k]; ok {
			out = append(out, i)
			continue
		}
		seen[k] = struct{}{}
	}
	return out
}

// SortBy sorts a copy of s with less, keeping equal elements in input order.
func SortBy[T any](s []T, less func(a, b T) bool) []T {
	out := append([]T(nil), s...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Reduce folds s into a single value using fn, starting with initial.
func Reduce[T, R any](s []T, initial R, fn func(carry R, item T) R) R {
	carry := initial
	for _, v := range s {
		carry = fn(carry, v)
	}
	return carry
}

// Sum sums integer values extracted by fn.
func Sum[T any](s []T, fn func(T) int64) int64 {
	return Reduce(s, int64(0), func(acc int64, v T) int64 { return acc + fn(v) })
}
