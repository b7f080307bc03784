package sys

import (
	"errors"
	"testing"
)

func TestPreallocCacheCountersAndStoreLoad(t *testing.T) {
	ResetPreallocCache()

	hits, misses := PreallocCacheStats()
	if hits != 0 || misses != 0 {
		t.Fatalf("expected zeroed stats, got hits=%d misses=%d", hits, misses)
	}

	preallocCacheMiss()
	hits, misses = PreallocCacheStats()
	if hits != 0 || misses != 1 {
		t.Fatalf("after one miss, expected hits=0 misses=1, got hits=%d misses=%d", hits, misses)
	}

	preallocCacheHit()
	preallocCacheHit()
	hits, misses = PreallocCacheStats()
	if hits != 2 || misses != 1 {
		t.Fatalf("after two hits, expected hits=2 misses=1, got hits=%d misses=%d", hits, misses)
	}

	const devID = uint64(0xABCD)
	if allow, found := preallocCacheLoad(devID); found {
		t.Fatalf("expected not found for dev %d, but found allow=%v", devID, allow)
	}

	preallocCacheStore(devID, false)
	if allow, found := preallocCacheLoad(devID); !found || allow {
		t.Fatalf("expected stored false for dev %d, got found=%v allow=%v", devID, found, allow)
	}

	preallocCacheStore(devID, true)
	if allow, found := preallocCacheLoad(devID); !found || !allow {
		t.Fatalf("expected stored true for dev %d, got found=%v allow=%v", devID, found, allow)
	}

	hits, misses = PreallocCacheStats()
	if hits != 2 || misses != 1 {
		t.Fatalf("unexpected stats after stores: hits=%d misses=%d", hits, misses)
	}

	ResetPreallocCache()
	if _, found := preallocCacheLoad(devID); found {
		t.Fatalf("reset should drop cached device %d", devID)
	}
}

func TestCountOutcome(t *testing.T) {
	ResetPreallocCache()

	_ = countOutcome(nil)
	_ = countOutcome(ErrPreallocNotSupported)
	boom := errors.New("boom")
	if err := countOutcome(boom); err != boom {
		t.Fatalf("countOutcome should return its argument, got %v", err)
	}

	st := ReadPreallocStats()
	if st.Successes != 1 || st.Unsupported != 1 || st.Failures != 1 {
		t.Fatalf("unexpected counters: %+v", st)
	}
}
