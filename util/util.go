package util

import "golang.org/x/exp/constraints"

func Min[A constraints.Ordered](a A, b A) A {
	if a > b {
		return b
	}
	return a
}

func Max[A constraints.Ordered](a A, b A) A {
	if a < b {
		return b
	}
	return a
}

// Clamp assumes lo <= hi.
func Clamp[A constraints.Ordered](v, lo, hi A) A {
	return Max(lo, Min(hi, v))
}

func IndexOf[A comparable](items []A, item A) int {
	for i, v := range items {
		if v == item {
			return i
		}
	}
	return -1
}
