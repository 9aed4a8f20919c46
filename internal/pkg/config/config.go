package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MEDREMIND_"

// Config carries everything the process needs at startup. Built-in defaults
// are layered under an optional YAML file, with MEDREMIND_* environment
// variables taking final precedence.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Store  StoreConfig  `koanf:"store"`
	Notify NotifyConfig `koanf:"notify"`
	Log    LogConfig    `koanf:"log"`
}

type ServerConfig struct {
	Port string `koanf:"port"`
}

type StoreConfig struct {
	// Backend selects the persistence driver, "sqlite" or "redis".
	Backend string       `koanf:"backend"`
	SQLite  SQLiteConfig `koanf:"sqlite"`
	Redis   RedisConfig  `koanf:"redis"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type NotifyConfig struct {
	// Channel selects the delivery driver, "line", "webhook" or "mqtt".
	Channel string        `koanf:"channel"`
	LINE    LINEConfig    `koanf:"line"`
	Webhook WebhookConfig `koanf:"webhook"`
	MQTT    MQTTConfig    `koanf:"mqtt"`
}

type LINEConfig struct {
	ChannelSecret string `koanf:"channel_secret"`
	ChannelToken  string `koanf:"channel_token"`
	// RecipientID is the push target. Left empty it is learned from the
	// first follow event and persisted.
	RecipientID string `koanf:"recipient_id"`
}

type WebhookConfig struct {
	URL            string `koanf:"url"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
	RetryCount     int    `koanf:"retry_count"`
}

type MQTTConfig struct {
	Broker   string `koanf:"broker"`
	ClientID string `koanf:"client_id"`
	Topic    string `koanf:"topic"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	QoS      int    `koanf:"qos"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load assembles the configuration. The YAML file path comes from
// MEDREMIND_CONFIG and falls back to ./config.yaml when that file exists.
// Environment keys map double underscores to nesting, e.g.
// MEDREMIND_STORE__REDIS__ADDR sets store.redis.addr.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path := os.Getenv("MEDREMIND_CONFIG")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Short names kept for compatibility with plain deployments.
	if v := os.Getenv("PORT"); v != "" {
		k.Set("server.port", v)
	}
	if v := os.Getenv("CHANNEL_SECRET"); v != "" {
		k.Set("notify.line.channel_secret", v)
	}
	if v := os.Getenv("CHANNEL_ACCESS_TOKEN"); v != "" {
		k.Set("notify.line.channel_token", v)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected drivers have what they need to start.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port must not be empty")
	}

	switch c.Store.Backend {
	case "sqlite":
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path must not be empty")
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr must not be empty")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Notify.Channel {
	case "line":
		if c.Notify.LINE.ChannelSecret == "" || c.Notify.LINE.ChannelToken == "" {
			return fmt.Errorf("notify.line.channel_secret and notify.line.channel_token are required")
		}
	case "webhook":
		if c.Notify.Webhook.URL == "" {
			return fmt.Errorf("notify.webhook.url must not be empty")
		}
	case "mqtt":
		if c.Notify.MQTT.Broker == "" || c.Notify.MQTT.Topic == "" {
			return fmt.Errorf("notify.mqtt.broker and notify.mqtt.topic are required")
		}
		if c.Notify.MQTT.QoS < 0 || c.Notify.MQTT.QoS > 2 {
			return fmt.Errorf("notify.mqtt.qos must be 0, 1 or 2")
		}
	default:
		return fmt.Errorf("unknown notify channel %q", c.Notify.Channel)
	}

	return nil
}
