// Package pair canonicalizes unordered dive-site pairs. (A,B) and (B,A)
// map to the same key, which is what both duplicate detection and the
// exhaustion denominator are defined over.
package pair

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is the canonical "min-max" form of an unordered pair of site ids.
type Key string

// NewKey builds the canonical key for two site ids, in either order.
func NewKey(a, b int64) Key {
	if a > b {
		a, b = b, a
	}
	return Key(fmt.Sprintf("%d-%d", a, b))
}

// Parse splits a canonical key back into its (low, high) site ids.
func Parse(k Key) (int64, int64, error) {
	lo, hi, ok := strings.Cut(string(k), "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedKey, k)
	}
	a, err := strconv.ParseInt(lo, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedKey, k)
	}
	b, err := strconv.ParseInt(hi, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedKey, k)
	}
	if a >= b {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedKey, k)
	}
	return a, b, nil
}

// Total returns the number of distinct unordered pairs over n sites,
// n*(n-1)/2. This is the completion denominator for exhaustion checks.
func Total(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
