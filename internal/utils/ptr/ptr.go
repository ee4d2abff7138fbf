package ptr

// ToString returns a pointer to s.
func ToString(s string) *string {
	return &s
}

// ToStringOrNil returns nil for an empty string.
func ToStringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to value or the zero value.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Equal reports whether two optional values hold the same value.
func Equal[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
