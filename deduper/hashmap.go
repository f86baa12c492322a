package deduper

import (
	"context"
	"hash/fnv"
	"sync"
)

var _ Deduper = (*hashmap)(nil)

// hashmap stores fnv64 digests instead of the raw place ids: ids are
// ~27 byte opaque strings and a long run accumulates thousands of them.
type hashmap struct {
	mu   sync.Mutex
	seen map[uint64]struct{}
}

func newHashmap() *hashmap {
	return &hashmap{
		seen: make(map[uint64]struct{}),
	}
}

func (d *hashmap) AddIfNotExists(_ context.Context, key string) bool {
	h := digest(key)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[h]; ok {
		return false
	}

	d.seen[h] = struct{}{}

	return true
}

func digest(key string) uint64 {
	h := fnv.New64()
	_, _ = h.Write([]byte(key))

	return h.Sum64()
}
