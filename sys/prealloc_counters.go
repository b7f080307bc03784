package sys

import (
	"sync"
	"sync/atomic"
)

// Preallocate decides per device whether the filesystem is worth trying
// (fstatfs plus a probing fallocate). The decision is cached by device id and
// every outcome is counted. Platform code goes through the helpers below
// rather than touching the map or counters directly.

// preallocCache maps uint64 device ID -> bool (true = allowed).
var preallocCache sync.Map

var preallocCacheHits atomic.Uint64
var preallocCacheMisses atomic.Uint64
var preallocSuccesses atomic.Uint64
var preallocFailures atomic.Uint64
var preallocUnsupported atomic.Uint64

// preallocCacheLoad returns (allowed, found).
func preallocCacheLoad(dev uint64) (allowed bool, found bool) {
	if v, ok := preallocCache.Load(dev); ok {
		if b, ok2 := v.(bool); ok2 {
			return b, true
		}
	}
	return false, false
}

func preallocCacheStore(dev uint64, allowed bool) {
	preallocCache.Store(dev, allowed)
}

func preallocCacheHit() {
	preallocCacheHits.Add(1)
}

func preallocCacheMiss() {
	preallocCacheMisses.Add(1)
}

func preallocSuccessInc()     { preallocSuccesses.Add(1) }
func preallocFailureInc()     { preallocFailures.Add(1) }
func preallocUnsupportedInc() { preallocUnsupported.Add(1) }

// countOutcome records the result of one Preallocate call and returns err
// unchanged.
func countOutcome(err error) error {
	switch {
	case err == nil:
		preallocSuccessInc()
	case err == ErrPreallocNotSupported:
		preallocUnsupportedInc()
	default:
		preallocFailureInc()
	}
	return err
}

// ResetPreallocCache forgets all cached per-device decisions and zeroes the
// counters.
func ResetPreallocCache() {
	preallocCache.Range(func(k, v any) bool {
		preallocCache.Delete(k)
		return true
	})
	preallocCacheHits.Store(0)
	preallocCacheMisses.Store(0)
	preallocSuccesses.Store(0)
	preallocFailures.Store(0)
	preallocUnsupported.Store(0)
}
