package ptr

func To[T any](v T) *T {
	return &v
}

// Or returns *p, or fallback when p is nil.
func Or[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
