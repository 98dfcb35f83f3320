package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// IndexOr dereferences an optional glTF index, returning def when it is absent.
//
// Parameters:
//   - p: the optional index
//   - def: the value used when p is nil
//
// Returns:
//   - int: *p or def
func IndexOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// InRange reports whether i is a valid index into a collection of length n.
func InRange(i, n int) bool {
	return i >= 0 && i < n
}
