// Package deduper holds the run-wide seen-set of place ids. A place id is
// admitted at most once per run; every later occurrence, from any query,
// is suppressed before its details are fetched.
package deduper

import "context"

type Deduper interface {
	// AddIfNotExists records the key and returns true the first time it
	// is seen; it returns false on every subsequent call with the same key.
	AddIfNotExists(ctx context.Context, key string) bool
}

func New() Deduper {
	return newHashmap()
}
