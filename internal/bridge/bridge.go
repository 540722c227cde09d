// Package bridge wires every subsystem together: MQTT client, command
// socket pool, event socket, throttled queue, response correlator, router,
// event publisher, discovery engine, and health reporter, per §4.5.
package bridge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/cgateweb/bridge/internal/cgate"
	"github.com/cgateweb/bridge/internal/cgate/correlator"
	"github.com/cgateweb/bridge/internal/cgate/pool"
	"github.com/cgateweb/bridge/internal/cgate/queue"
	"github.com/cgateweb/bridge/internal/cgate/transport"
	"github.com/cgateweb/bridge/internal/config"
	"github.com/cgateweb/bridge/internal/discovery"
	"github.com/cgateweb/bridge/internal/events"
	"github.com/cgateweb/bridge/internal/health"
	"github.com/cgateweb/bridge/internal/mqttclient"
	"github.com/cgateweb/bridge/internal/router"
)

// Logger is the logging surface every wired subsystem needs. *logging.Logger
// satisfies this (it embeds *slog.Logger).
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// correlatorTimeout is the default window for a relative-level GET to
// receive its matching 300 response, per §4.3.
const correlatorTimeout = 5 * time.Second

// Bridge owns every subsystem's lifecycle and wires them to each other.
type Bridge struct {
	cfg    *config.Config
	logger Logger

	mqtt        *mqttclient.Client
	cmdPool     *pool.Pool
	cmdQueue    *queue.Queue
	corr        *correlator.Correlator
	rtr         *router.Router
	eventPub    *events.EventPublisher
	labels      *discovery.LabelMapWatcher
	discoveryEn *discovery.Engine
	healthRep   *health.Reporter
	scheduler   gocron.Scheduler

	eventConnMu sync.RWMutex
	eventConn   *transport.Conn
	eventLoopWG sync.WaitGroup

	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once
}

// New constructs every subsystem that doesn't require a live network
// connection: the queue, correlator, router, command pool (undialed), and
// label-map watcher. Network connections are established in Start.
func New(cfg *config.Config, logger Logger) (*Bridge, error) {
	b := &Bridge{cfg: cfg, logger: logger}

	b.corr = correlator.New(correlatorTimeout, logger)

	b.cmdPool = pool.New(pool.Config{
		Size:                cfg.CGate.PoolSize,
		HealthCheckInterval: cfg.HealthCheckInterval(),
		KeepAliveInterval:   cfg.KeepAliveInterval(),
	}, b.dialCommandSlot, logger)

	b.cmdQueue = queue.New(queue.Config{
		MessageInterval: cfg.MessageInterval(),
		MaxPending:      cfg.Queue.MaxPending,
	}, b.cmdPool, logger)

	b.rtr = router.New(cfg.CGate.Project, b.cmdQueue, b.corr, logger)
	b.cmdPool.SetOnLine(func(_ int, line string) {
		if b.discoveryEn != nil {
			b.discoveryEn.HandleResponseLine(line)
		}
		if !b.rtr.HandleResponseLine(line) && b.eventPub != nil {
			b.eventPub.HandleResponseLine(line)
		}
	})

	b.labels = discovery.NewLabelMapWatcher(cfg.Discovery.LabelFile, logger)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("bridge: creating scheduler: %w", err)
	}
	b.scheduler = scheduler

	return b, nil
}

func (b *Bridge) dialCommandSlot(ctx context.Context, slotIndex int, onLine func(line string)) (pool.Connector, error) {
	conn, err := transport.Dial(ctx, transport.Config{
		Address:        fmt.Sprintf("%s:%d", b.cfg.CGate.Host, b.cfg.CGate.CommandPort),
		ConnectTimeout: b.cfg.ConnectionTimeout(),
	})
	if err != nil {
		return nil, err
	}
	conn.SetOnLine(onLine)
	conn.SetLogger(b.logger)
	return conn, nil
}

// runEventConnLoop keeps the single event socket connected for the life of
// the bridge, redialing with the pool's own exponential backoff (§4.2,
// "a single event socket" shares the same reconnection discipline) whenever
// the dial fails or an established connection drops.
func (b *Bridge) runEventConnLoop(ctx context.Context) {
	defer b.eventLoopWG.Done()

	retry := 0
	for {
		conn, err := b.dialEventConn(ctx)
		if err != nil {
			b.logger.Warn("event socket dial failed, retrying", "attempt", retry, "error", err)
			if !sleepBackoff(ctx, retry) {
				return
			}
			retry++
			continue
		}

		retry = 0
		b.setEventConn(conn)

		if !waitForDisconnect(ctx, conn) {
			return
		}
		b.logger.Warn("event socket disconnected, reconnecting")
	}
}

func (b *Bridge) dialEventConn(ctx context.Context) (*transport.Conn, error) {
	conn, err := transport.Dial(ctx, transport.Config{
		Address:        fmt.Sprintf("%s:%d", b.cfg.CGate.Host, b.cfg.CGate.EventPort),
		ConnectTimeout: b.cfg.ConnectionTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("dialing event socket: %w", err)
	}
	conn.SetLogger(b.logger)
	conn.SetOnLine(b.eventPub.HandleLine)
	return conn, nil
}

func (b *Bridge) setEventConn(conn *transport.Conn) {
	b.eventConnMu.Lock()
	b.eventConn = conn
	b.eventConnMu.Unlock()
}

// closeEventConn closes the current event connection, if any, unblocking
// whichever goroutine is waiting on it in runEventConnLoop.
func (b *Bridge) closeEventConn() {
	b.eventConnMu.RLock()
	conn := b.eventConn
	b.eventConnMu.RUnlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// eventConnPollInterval bounds how quickly a dropped event connection is
// noticed and redialed.
const eventConnPollInterval = time.Second

// waitForDisconnect blocks until conn reports disconnected or ctx is
// cancelled. Returns false on cancellation (caller should stop looping),
// true when the connection dropped and should be redialed.
func waitForDisconnect(ctx context.Context, conn *transport.Conn) bool {
	ticker := time.NewTicker(eventConnPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return false
		case <-ticker.C:
			if !conn.IsConnected() {
				return true
			}
		}
	}
}

// sleepBackoff waits for the pool's standard reconnect backoff, or returns
// false early if ctx is cancelled.
func sleepBackoff(ctx context.Context, retry int) bool {
	select {
	case <-time.After(pool.BackoffDelay(retry)):
		return true
	case <-ctx.Done():
		return false
	}
}

// Start brings every subsystem up in order: MQTT, command pool, event
// socket, initial getall (if configured), discovery (if enabled), then
// periodic scheduling.
func (b *Bridge) Start(ctx context.Context) error {
	b.ctx, b.ctxCancel = context.WithCancel(ctx)

	mqttClient, err := mqttclient.Connect(b.cfg.MQTT)
	if err != nil {
		return fmt.Errorf("bridge: connecting to mqtt: %w", err)
	}
	mqttClient.SetLogger(b.logger)
	b.mqtt = mqttClient

	b.eventPub = events.New(b.mqtt, b.logger)
	b.discoveryEn = discovery.New(b.cfg.Discovery, b.cmdQueue, b.mqtt, b.labels, b.logger)
	b.rtr.SetAnnounceHandler(func() {
		b.discoveryEn.Trigger(b.ctx)
	})

	b.healthRep = health.New(health.Config{
		Topic:     mqttclient.Topics{}.Hello(),
		Interval:  30 * time.Second,
		Publisher: b.mqtt,
		Pool:      b.cmdPool,
		Queue:     b.cmdQueue,
		Logger:    b.logger,
	})

	if err := b.mqtt.Subscribe(mqttclient.Topics{}.AllWrites(), 1, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("bridge: subscribing to write topics: %w", err)
	}

	if err := b.cmdPool.Start(b.ctx); err != nil {
		return fmt.Errorf("bridge: starting command pool: %w", err)
	}
	b.cmdQueue.Start(b.ctx)

	b.eventLoopWG.Add(1)
	go b.runEventConnLoop(b.ctx)

	b.healthRep.Start(b.ctx)

	if b.cfg.CGate.GetAllOnStart {
		b.triggerGetAll()
	}

	if b.cfg.Discovery.Enabled {
		b.discoveryEn.Trigger(b.ctx)
	}

	b.scheduleJobs()
	b.scheduler.Start()

	b.logger.Info("bridge started",
		"cgate_host", b.cfg.CGate.Host,
		"pool_size", b.cfg.CGate.PoolSize,
		"discovery_enabled", b.cfg.Discovery.Enabled)

	return nil
}

// handleMQTTMessage adapts a raw MQTT delivery to the router, translating
// its error return into a warn-and-drop per §7.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) error {
	if err := b.rtr.HandleMQTT(topic, payload); err != nil {
		b.logger.Warn("dropping unroutable mqtt message", "topic", topic, "error", err)
	}
	return nil
}

// triggerGetAll issues the configured startup GET-all command, if
// cgate.get_all_net_app names a "<network>/<application>" pair.
func (b *Bridge) triggerGetAll() {
	netApp := b.cfg.CGate.GetAllNetApp
	if netApp == "" {
		return
	}
	parts := strings.SplitN(netApp, "/", 2)
	if len(parts) != 2 {
		b.logger.Warn("ignoring malformed cgate.get_all_net_app", "value", netApp)
		return
	}
	network, err1 := strconv.Atoi(parts[0])
	application, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		b.logger.Warn("ignoring malformed cgate.get_all_net_app", "value", netApp)
		return
	}
	b.cmdQueue.Enqueue(cgate.EncodeGetAll(b.cfg.CGate.Project, network, application))
}

// scheduleJobs registers the periodic getall, periodic discovery, and
// label-map reload-check jobs named in §4.5.
func (b *Bridge) scheduleJobs() {
	if b.cfg.CGate.GetAllPeriodS > 0 {
		interval := time.Duration(b.cfg.CGate.GetAllPeriodS) * time.Second
		if _, err := b.scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(b.triggerGetAll),
		); err != nil {
			b.logger.Warn("failed to schedule periodic getall", "error", err)
		}
	}

	if b.cfg.Discovery.Enabled && b.cfg.Discovery.PeriodS > 0 {
		interval := time.Duration(b.cfg.Discovery.PeriodS) * time.Second
		if _, err := b.scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				b.labels.CheckReload()
				b.discoveryEn.Trigger(b.ctx)
			}),
		); err != nil {
			b.logger.Warn("failed to schedule periodic discovery", "error", err)
		}
	}
}

// Stop shuts down every subsystem in reverse startup order. Safe to call
// more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		if b.scheduler != nil {
			_ = b.scheduler.Shutdown()
		}
		if b.healthRep != nil {
			b.healthRep.Stop()
		}
		if b.ctxCancel != nil {
			b.ctxCancel()
		}
		b.closeEventConn()
		b.eventLoopWG.Wait()
		b.cmdQueue.Stop()
		b.cmdPool.Stop()
		if b.mqtt != nil {
			_ = b.mqtt.Close()
		}
		b.logger.Info("bridge stopped")
	})
}
