package record

// Match returns the candidate whose key equals key exactly (case-sensitive),
// and whether one was found. There is no fuzzy matching: a renamed object does
// not match and is routed to creation.
func Match[T any](key string, candidates []T, keyOf func(T) string) (T, bool) {
	for _, c := range candidates {
		if keyOf(c) == key {
			return c, true
		}
	}
	var zero T
	return zero, false
}
