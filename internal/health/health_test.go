package health

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/cgateweb/bridge/internal/cgate/pool"
	"github.com/cgateweb/bridge/internal/cgate/queue"
)

type recordingPublisher struct {
	mu        sync.Mutex
	payloads  [][]byte
	connected bool
}

func (p *recordingPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *recordingPublisher) last(t *testing.T) Status {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.payloads) == 0 {
		t.Fatalf("no payloads published")
	}
	var s Status
	if err := json.Unmarshal(p.payloads[len(p.payloads)-1], &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return s
}

type fakePoolStats struct{ stats pool.Stats }

func (f fakePoolStats) Stats() pool.Stats { return f.stats }

type fakeQueueStats struct{ stats queue.Stats }

func (f fakeQueueStats) Stats() queue.Stats { return f.stats }

func TestPublishNowReportsOnlineWhenHealthy(t *testing.T) {
	pub := &recordingPublisher{connected: true}
	r := New(Config{
		Topic:     "hello/cgateweb",
		Publisher: pub,
		Pool:      fakePoolStats{pool.Stats{Size: 3, Healthy: 3}},
		Queue:     fakeQueueStats{queue.Stats{Pending: 2}},
	})

	if err := r.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	status := pub.last(t)
	if status.Status != "online" {
		t.Errorf("Status = %q, want %q", status.Status, "online")
	}
	if status.PoolSize != 3 || status.PoolHealthy != 3 {
		t.Errorf("pool stats = %+v, want Size=3 Healthy=3", status)
	}
	if status.QueuePending != 2 {
		t.Errorf("QueuePending = %d, want 2", status.QueuePending)
	}
}

func TestPublishNowReportsDegradedWhenDisconnected(t *testing.T) {
	pub := &recordingPublisher{connected: false}
	r := New(Config{Topic: "hello/cgateweb", Publisher: pub})

	if err := r.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	status := pub.last(t)
	if status.Status != "degraded" {
		t.Errorf("Status = %q, want %q", status.Status, "degraded")
	}
}

func TestPublishNowReportsDegradedWhenPoolUnhealthy(t *testing.T) {
	pub := &recordingPublisher{connected: true}
	r := New(Config{
		Topic:     "hello/cgateweb",
		Publisher: pub,
		Pool:      fakePoolStats{pool.Stats{Size: 3, Healthy: 0}},
	})

	if err := r.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	status := pub.last(t)
	if status.Status != "degraded" {
		t.Errorf("Status = %q, want %q", status.Status, "degraded")
	}
}

func TestReporterStartStopIsIdempotent(t *testing.T) {
	pub := &recordingPublisher{connected: true}
	r := New(Config{Topic: "hello/cgateweb", Publisher: pub, Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	r.Stop()
	r.Stop()

	pub.mu.Lock()
	n := len(pub.payloads)
	pub.mu.Unlock()
	if n == 0 {
		t.Errorf("expected at least one published status, got 0")
	}
}
