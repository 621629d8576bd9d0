package main

import (
	"fmt"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	storeMemory = "memory"
	storeRedis  = "redis"
	storeSQLite = "sqlite"
)

// appConfig is the full configuration of the gosession binary. The manager
// block maps onto goSession.Config.
type appConfig struct {
	Addr   string `koanf:"addr"`
	Store  string `koanf:"store"`
	Redis  struct {
		Addr string `koanf:"addr"`
	} `koanf:"redis"`
	SQLite struct {
		DSN string `koanf:"dsn"`
	} `koanf:"sqlite"`
	Log struct {
		Format string `koanf:"format"`
		Level  string `koanf:"level"`
	} `koanf:"log"`
	Manager goSession.Config `koanf:"manager"`
}

func defaultAppConfig() appConfig {
	var cfg appConfig
	cfg.Addr = ":8080"
	cfg.Store = storeMemory
	cfg.SQLite.DSN = "file:gosession.db?cache=shared"
	cfg.Log.Format = "text"
	cfg.Log.Level = "info"
	cfg.Manager = goSession.DefaultConfig()
	cfg.Manager.Metrics.Enabled = true
	cfg.Manager.Metrics.EnableLatencyHistograms = true
	return cfg
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"addr":       "addr",
	"store":      "store",
	"redis-addr": "redis.addr",
	"sqlite-dsn": "sqlite.dsn",
	"log-format": "log.format",
	"log-level":  "log.level",
	"latency":    "manager.mock.latency",
}

func registerFlags(fs *pflag.FlagSet) {
	def := defaultAppConfig()
	fs.String("config", "", "YAML config file path")
	fs.String("addr", def.Addr, "HTTP listen address")
	fs.String("store", def.Store, "session store: memory, redis or sqlite")
	fs.String("redis-addr", "", "Redis address; an in-process Redis is started when empty")
	fs.String("sqlite-dsn", def.SQLite.DSN, "SQLite DSN for --store sqlite")
	fs.String("log-format", def.Log.Format, "log format: text or json")
	fs.String("log-level", def.Log.Level, "log level: debug, info, warn or error")
	fs.Duration("latency", def.Manager.Mock.Latency, "simulated backend latency")
}

// loadConfig layers the YAML file named by --config and then explicitly set
// flags over the defaults.
func loadConfig(fs *pflag.FlagSet) (appConfig, error) {
	cfg := defaultAppConfig()
	k := koanf.New(".")

	path, _ := fs.GetString("config")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(flags, nil); err != nil {
		return cfg, fmt.Errorf("load flags: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c appConfig) validate() error {
	switch c.Store {
	case storeMemory, storeRedis, storeSQLite:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Store == storeSQLite && c.SQLite.DSN == "" {
		return fmt.Errorf("sqlite store requires a DSN")
	}
	return c.Manager.Validate()
}

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second
