package main

import (
	"context"
	"fmt"
	"log/slog"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// runtime bundles a built Manager with the resources that must be released
// after it.
type runtime struct {
	manager *goSession.Manager
	logger  *slog.Logger
	closers []func()
}

func (r *runtime) Close() {
	if r.manager != nil {
		r.manager.Close()
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// openRuntime opens the configured store and builds a started Manager. With
// logNotifications set every notification is also written to the log.
func openRuntime(ctx context.Context, cfg appConfig, logNotifications bool) (*runtime, error) {
	logger := logging.Setup("gosession", version, cfg.Log.Format, cfg.Log.Level, nil)
	rt := &runtime{logger: logger}

	b := goSession.New().
		WithConfig(cfg.Manager).
		WithLogger(logger)
	if logNotifications {
		b = b.WithNotificationSink(goSession.LogSink{Logger: logger})
	}

	switch cfg.Store {
	case storeRedis:
		addr := cfg.Redis.Addr
		if addr == "" {
			mr, err := miniredis.Run()
			if err != nil {
				return nil, fmt.Errorf("start in-process redis: %w", err)
			}
			rt.closers = append(rt.closers, mr.Close)
			addr = mr.Addr()
			logger.Info("using in-process redis", slog.String("addr", addr))
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		b = b.WithRedis(client)
	case storeSQLite:
		kv, err := session.OpenSQLite(ctx, cfg.SQLite.DSN)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = kv.Close() })
		b = b.WithStore(kv)
	default:
		b = b.WithStore(session.NewMemoryKV())
	}

	m, err := b.Build()
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("build session manager: %w", err)
	}
	rt.manager = m

	if err := m.Start(ctx); err != nil {
		logging.LogError(ctx, logger, slog.LevelWarn, "session rehydration failed", err)
	}
	return rt, nil
}
