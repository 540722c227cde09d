// Package health periodically enriches the bridge's hello/cgateweb
// presence topic with a JSON status payload describing pool and queue
// activity, per SPEC_FULL.md §C.1-§C.2.
package health

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cgateweb/bridge/internal/cgate/pool"
	"github.com/cgateweb/bridge/internal/cgate/queue"
)

const defaultInterval = 30 * time.Second

// Publisher is the outbound MQTT surface the reporter needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// PoolStatter reports pool activity.
type PoolStatter interface {
	Stats() pool.Stats
}

// QueueStatter reports queue activity.
type QueueStatter interface {
	Stats() queue.Stats
}

// Logger is the minimal logging surface the reporter needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// Status is the JSON payload published to the status topic.
type Status struct {
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	UptimeS      int64  `json:"uptime_seconds"`
	PoolSize     int    `json:"pool_size"`
	PoolHealthy  int    `json:"pool_healthy"`
	QueuePending int    `json:"queue_pending"`
}

// Config configures a Reporter.
type Config struct {
	Topic     string
	Interval  time.Duration
	Publisher Publisher
	Pool      PoolStatter
	Queue     QueueStatter
	Logger    Logger
}

// Reporter periodically publishes bridge health status. Stop is
// idempotent via stopOnce, matching the donor health reporter's shutdown
// idiom.
type Reporter struct {
	topic     string
	interval  time.Duration
	publisher Publisher
	pool      PoolStatter
	queue     QueueStatter
	logger    Logger
	startTime time.Time

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New constructs a Reporter. An Interval of zero defaults to 30s.
func New(cfg Config) *Reporter {
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultInterval
	}
	return &Reporter{
		topic:     cfg.Topic,
		interval:  interval,
		publisher: cfg.Publisher,
		pool:      cfg.Pool,
		queue:     cfg.Queue,
		logger:    cfg.Logger,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}
}

// Start begins periodic reporting in a background goroutine.
func (r *Reporter) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop halts the reporting loop and waits for it to exit. Safe to call
// more than once.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}

// PublishNow publishes the current status immediately, outside the
// regular interval.
func (r *Reporter) PublishNow() error {
	return r.publish()
}

func (r *Reporter) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.publish(); err != nil && r.logger != nil {
		r.logger.Warn("failed to publish initial health status", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			if err := r.publish(); err != nil && r.logger != nil {
				r.logger.Warn("failed to publish health status", "error", err)
			}
		}
	}
}

func (r *Reporter) publish() error {
	if r.publisher == nil {
		return nil
	}

	status := Status{
		Status:  "online",
		UptimeS: int64(time.Since(r.startTime).Seconds()),
	}
	if !r.publisher.IsConnected() {
		status.Status = "degraded"
		status.Reason = "mqtt disconnected"
	}
	if r.pool != nil {
		stats := r.pool.Stats()
		status.PoolSize = stats.Size
		status.PoolHealthy = stats.Healthy
		if stats.Healthy == 0 && status.Status == "online" {
			status.Status = "degraded"
			status.Reason = "no healthy command sockets"
		}
	}
	if r.queue != nil {
		status.QueuePending = r.queue.Stats().Pending
	}

	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return r.publisher.Publish(r.topic, payload, 1, true)
}
