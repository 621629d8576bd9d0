package goSession

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Manager]. It is single-use.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	kv     session.KV
	redis  redis.UniversalClient

	backend AuthBackend
	account AccountBackend
	sink    NotificationSink
	logger  *slog.Logger
	now     func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New starts from [DefaultConfig] and the mock backend.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the key-value store holding the durable session record.
func (b *Builder) WithStore(kv session.KV) *Builder {
	b.kv = kv
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis stores the session record in Redis using Config.Session prefix,
// TTL and jitter settings. A store set with [Builder.WithStore] takes precedence.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithBackend sets the backend for the core operations. When it also
// implements [AccountBackend] it serves the account operations too, unless
// [Builder.WithAccountBackend] overrides that.
func (b *Builder) WithBackend(backend AuthBackend) *Builder {
	b.backend = backend
	return b
}

func (b *Builder) WithAccountBackend(account AccountBackend) *Builder {
	b.account = account
	return b
}

// WithNotificationSink describes the withnotificationsink operation and its observable behavior.
//
// WithNotificationSink sets where success and error notifications go. Without
// one they are discarded.
func (b *Builder) WithNotificationSink(sink NotificationSink) *Builder {
	b.sink = sink
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) withClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when the configuration is invalid, no store was
// provided or the builder was already used. The returned Manager is in the
// Loading state until [Manager.Start] runs.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kv := b.kv
	if kv == nil && b.redis != nil {
		kv = session.NewRedisKV(
			b.redis,
			cfg.Session.RedisPrefix,
			cfg.Session.RedisTTL,
			cfg.Session.JitterEnabled,
			cfg.Session.JitterRange,
		)
	}
	if kv == nil {
		return nil, errors.New("session store required")
	}

	backend := b.backend
	if backend == nil {
		backend = NewMockBackend(cfg)
	}
	account := b.account
	if account == nil {
		if ab, ok := backend.(AccountBackend); ok {
			account = ab
		}
	}

	logger := b.logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	m := &Manager{
		config:   cfg,
		store:    session.NewStore(kv, cfg.Session.TokenSlot, cfg.Session.UserSlot),
		backend:  backend,
		account:  account,
		notifier: newNotificationDispatcher(cfg.Notifications, b.sink),
		metrics:  NewMetrics(cfg.Metrics),
		logger:   logger,
		now:      now,
		loading:  true,
		watchers: make(map[uint64]chan Snapshot),
	}

	b.built = true
	return m, nil
}
