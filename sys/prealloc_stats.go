package sys

// PreallocStats is a snapshot of the Preallocate counters.
type PreallocStats struct {
	CacheHits   uint64
	CacheMisses uint64
	Successes   uint64
	Failures    uint64
	Unsupported uint64
}

// PreallocCacheStats returns the current preallocation cache hit and miss
// counters.
func PreallocCacheStats() (hits uint64, misses uint64) {
	return preallocCacheHits.Load(), preallocCacheMisses.Load()
}

// ReadPreallocStats returns all Preallocate counters.
func ReadPreallocStats() PreallocStats {
	return PreallocStats{
		CacheHits:   preallocCacheHits.Load(),
		CacheMisses: preallocCacheMisses.Load(),
		Successes:   preallocSuccesses.Load(),
		Failures:    preallocFailures.Load(),
		Unsupported: preallocUnsupported.Load(),
	}
}
