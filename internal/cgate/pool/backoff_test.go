package pool

import "testing"

func TestBackoffDelayMonotonicAndCapped(t *testing.T) {
	// §8 invariant 3: for 0 <= k < 6, delay == min(1000*2^k, 60000) and is
	// strictly non-decreasing in k.
	want := []int{1000, 2000, 4000, 8000, 16000, 32000}
	var prev int
	for k, w := range want {
		got := BackoffDelay(k).Milliseconds()
		if int(got) != w {
			t.Errorf("BackoffDelay(%d) = %dms, want %dms", k, got, w)
		}
		if int(got) < prev {
			t.Errorf("BackoffDelay(%d) = %dms is less than previous %dms", k, got, prev)
		}
		prev = int(got)
	}
}

func TestBackoffDelayCapsAtSixtySeconds(t *testing.T) {
	for _, k := range []int{6, 7, 20, 1000} {
		if got := BackoffDelay(k).Milliseconds(); got != 60000 {
			t.Errorf("BackoffDelay(%d) = %dms, want 60000ms cap", k, got)
		}
	}
}
