package correlator

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cgateweb/bridge/internal/cgate"
)

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

func testAddr() cgate.Address {
	return cgate.Address{Network: 254, Application: 56, Group: 4}
}

func TestRegisterAndDeliverFiresOnMatchOnce(t *testing.T) {
	c := New(time.Second, nopLogger{})
	addr := testAddr()

	var mu sync.Mutex
	var matched []int
	err := c.Register(addr, func(raw int) {
		mu.Lock()
		matched = append(matched, raw)
		mu.Unlock()
	}, func() {
		t.Error("onTimeout fired, want onMatch only")
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if ok := c.Deliver(addr, 180); !ok {
		t.Fatal("Deliver() = false, want true for a pending op")
	}
	// A second delivery for the same address, with nothing pending, must
	// be a no-op rather than firing onMatch again.
	if ok := c.Deliver(addr, 180); ok {
		t.Fatal("second Deliver() = true, want false (already consumed)")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(matched) != 1 || matched[0] != 180 {
		t.Errorf("matched = %v, want [180] exactly once", matched)
	}
	if got := c.Pending(); got != 0 {
		t.Errorf("Pending() = %d, want 0 after match", got)
	}
}

func TestDeliverWithNoPendingOpIsNoOp(t *testing.T) {
	c := New(time.Second, nopLogger{})
	if ok := c.Deliver(testAddr(), 100); ok {
		t.Fatal("Deliver() = true, want false when nothing is registered")
	}
}

func TestRegisterRejectsSecondPendingOpForSameAddress(t *testing.T) {
	c := New(time.Second, nopLogger{})
	addr := testAddr()

	if err := c.Register(addr, func(int) {}, func() {}); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	err := c.Register(addr, func(int) {}, func() {})
	if !errors.Is(err, ErrPendingOpExists) {
		t.Fatalf("second Register() error = %v, want ErrPendingOpExists", err)
	}

	if got := c.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want 1 (rejected registration must not replace the original)", got)
	}
}

func TestRegisterFiresOnTimeoutWhenUnmatched(t *testing.T) {
	c := New(20*time.Millisecond, nopLogger{})
	addr := testAddr()

	done := make(chan struct{})
	err := c.Register(addr, func(int) {
		t.Error("onMatch fired, want onTimeout only")
	}, func() {
		close(done)
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onTimeout did not fire within 1s")
	}

	if got := c.Pending(); got != 0 {
		t.Errorf("Pending() = %d, want 0 after timeout", got)
	}

	// The address must be free to register again after timeout cleanup.
	if err := c.Register(addr, func(int) {}, func() {}); err != nil {
		t.Fatalf("Register() after timeout error = %v, want nil", err)
	}
}

func TestDeliverAfterTimeoutRaceIsNoOp(t *testing.T) {
	// If Deliver loses the race to a timeout that has already cleaned up
	// the entry, it must report false rather than double-firing onMatch.
	c := New(10*time.Millisecond, nopLogger{})
	addr := testAddr()

	timedOut := make(chan struct{})
	_ = c.Register(addr, func(int) {
		t.Error("onMatch fired after timeout already won the race")
	}, func() {
		close(timedOut)
	})

	<-timedOut
	if ok := c.Deliver(addr, 50); ok {
		t.Fatal("Deliver() = true after timeout already cleaned up the entry, want false")
	}
}

func TestPendingCountTracksMultipleAddresses(t *testing.T) {
	c := New(time.Second, nopLogger{})
	a1 := cgate.Address{Network: 254, Application: 56, Group: 1}
	a2 := cgate.Address{Network: 254, Application: 56, Group: 2}

	_ = c.Register(a1, func(int) {}, func() {})
	_ = c.Register(a2, func(int) {}, func() {})
	if got := c.Pending(); got != 2 {
		t.Fatalf("Pending() = %d, want 2", got)
	}

	c.Deliver(a1, 255)
	if got := c.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1 after one delivery", got)
	}
}
