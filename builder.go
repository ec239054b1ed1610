package authcore

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/propertyhub/authcore/gateway"
	"github.com/propertyhub/authcore/scheduler"
	"github.com/propertyhub/authcore/session"
	"github.com/propertyhub/authcore/storage"
)

// Builder assembles a [Manager]. Construction is allocation-only until
// Build, which hydrates prior state, ensures a device id, wires the
// effects layer, and starts the lifecycle scheduler.
type Builder struct {
	config  Config
	gw      Gateway
	durable storage.Storage
	clock   scheduler.Clock
	logger  zerolog.Logger
	sink    AuditSink

	built bool
}

// New returns a Builder with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithGateway injects an identity-service client. When omitted, Build
// constructs the HTTP gateway from Config.Gateway.BaseURL.
func (b *Builder) WithGateway(gw Gateway) *Builder {
	b.gw = gw
	return b
}

// WithStorage injects the durable client storage. Defaults to an
// in-memory slot unusable across restarts — real deployments pass
// storage.NewFile or storage.NewRedis.
func (b *Builder) WithStorage(s storage.Storage) *Builder {
	b.durable = s
	return b
}

// WithClock injects a clock, letting tests drive the scheduler
// deterministically. Defaults to scheduler.SystemClock.
func (b *Builder) WithClock(c scheduler.Clock) *Builder {
	b.clock = c
	return b
}

// WithLogger injects the structured logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink injects the audit sink used when Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// Build validates the wiring and returns a running Manager. The returned
// Manager must be Closed when no longer needed.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := b.config
	cfg.normalize()

	gw := b.gw
	if gw == nil {
		if cfg.Gateway.BaseURL == "" {
			return nil, ErrGatewayRequired
		}
		client := gateway.NewClient(cfg.Gateway.BaseURL)
		client.HTTPClient.Timeout = cfg.Gateway.Timeout
		client.UserAgent = cfg.Gateway.UserAgent
		gw = client
	}

	durable := b.durable
	if durable == nil {
		durable = storage.NewMemory()
	}

	clock := b.clock
	if clock == nil {
		clock = scheduler.SystemClock
	}

	m := &Manager{
		cfg:     cfg,
		gw:      gw,
		store:   session.NewStore(),
		durable: durable,
		clock:   clock,
		log:     b.logger,
		audit:   newAuditDispatcher(cfg.Audit, b.sink),
		metrics: newMetrics(cfg.Metrics),
	}

	m.sched = scheduler.New(clock, scheduler.Config{
		RefreshLead:   cfg.Scheduler.RefreshLead,
		CheckInterval: cfg.Scheduler.CheckInterval,
	}, scheduler.Callbacks{
		Authenticated: m.authenticated,
		Refresh:       m.scheduledRefresh,
		Check:         m.scheduledCheck,
	})

	// Hydrate before wiring effects so restoring prior state does not
	// immediately rewrite it. Effects must be live before ensureDeviceID:
	// a freshly generated id has to reach durable storage even if the
	// process never logs in.
	ctx, cancel := context.WithTimeout(context.Background(), backgroundOpTimeout)
	defer cancel()
	m.hydrate(ctx)

	m.store.Subscribe(m.persistEffect)
	m.store.Subscribe(m.expiryEffect)

	m.ensureDeviceID()

	m.sched.Start()

	return m, nil
}
