// Package config loads process configuration from environment variables
// (and an optional .env file) for cmd/engine and cmd/replay.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads configuration into cfg, panicking on failure.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load()
	env.Must(cfg, env.Parse(cfg))
}

// Load loads configuration into cfg, returning any parse error.
func Load[T any](cfg T) error {
	_ = godotenv.Load()
	return env.Parse(cfg)
}

// Config is the full process configuration for cmd/engine.
type Config struct {
	Symbol string `env:"SYMBOL" envDefault:"BTC-USD"`

	EngineConfig `envPrefix:"ENGINE_"`
	KafkaConfig  `envPrefix:"KAFKA_"`
	RedisConfig  `envPrefix:"REDIS_"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
}

// EngineConfig holds the core engine's sizing and cadence knobs.
type EngineConfig struct {
	ArenaCapacity      uint32 `env:"ARENA_CAPACITY" envDefault:"1048575"`
	CommandRingSize    int    `env:"COMMAND_RING_SIZE" envDefault:"65536"`
	EventRingSize      int    `env:"EVENT_RING_SIZE" envDefault:"65536"`
	SnapshotEveryN     int64  `env:"SNAPSHOT_EVERY_N" envDefault:"1000"`
	SnapshotDepth      int    `env:"SNAPSHOT_DEPTH" envDefault:"10"`
	SpinBudgetIdleIter int    `env:"SPIN_BUDGET_IDLE_ITER" envDefault:"64"`
}

// KafkaConfig holds the Kafka ingress/egress adapter settings.
type KafkaConfig struct {
	Brokers      []string `env:"BROKERS,required"`
	CommandTopic string   `env:"COMMAND_TOPIC,required"`
	EventTopic   string   `env:"EVENT_TOPIC,required"`
	GroupID      string   `env:"GROUP_ID" envDefault:"flash-lob"`
	Enabled      bool     `env:"ENABLED" envDefault:"false"`
}

// RedisConfig holds the external snapshot mirror's Redis settings.
type RedisConfig struct {
	Addr         string `env:"ADDR" envDefault:"localhost:6379"`
	Password     string `env:"PASSWORD" envDefault:""`
	DB           int    `env:"DB" envDefault:"0"`
	SnapshotKey  string `env:"SNAPSHOT_KEY" envDefault:"flash-lob:snapshot"`
	MirrorPeriod string `env:"MIRROR_PERIOD" envDefault:"1s"`
	Enabled      bool   `env:"ENABLED" envDefault:"false"`
}
