package foundation

import "strings"

// Normalizer maps loosely formatted strings onto a closed set of enum values.
// Matching ignores case and surrounding whitespace.
type Normalizer[T comparable] struct {
	valid    map[string]T
	fallback T
}

// NewNormalizer creates a normalizer from name->value pairs. Unknown input
// normalizes to fallback.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	valid := make(map[string]T, len(values))
	for k, v := range values {
		valid[normalizeKey(k)] = v
	}
	return &Normalizer[T]{valid: valid, fallback: fallback}
}

// Normalize converts raw to the enum type, returning the fallback when raw is not recognized.
func (n *Normalizer[T]) Normalize(raw string) T {
	v, _ := n.Lookup(raw)
	return v
}

// Lookup is Normalize that also reports whether raw was recognized.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	if v, ok := n.valid[normalizeKey(raw)]; ok {
		return v, true
	}
	return n.fallback, false
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
