// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full environment-driven configuration for the service.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// StoreDriver selects the room store backend: memory, postgres or mongo.
	StoreDriver string `env:"LUDO_STORE_DRIVER" envDefault:"memory"`
	PostgresDSN string `env:"LUDO_POSTGRES_DSN"`
	MongoURI    string `env:"LUDO_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB     string `env:"LUDO_MONGO_DB" envDefault:"ethioludo"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// LockMode enables the distributed admission lease for multi-process
	// deployments. Single-process deployments rely on the store's
	// conditional update alone.
	LockMode bool          `env:"LUDO_LOCK_MODE" envDefault:"false"`
	LockTTL  time.Duration `env:"LUDO_LOCK_TTL" envDefault:"3s"`

	MaxPlayers    int           `env:"LUDO_MAX_PLAYERS" envDefault:"4"`
	MaxBots       int           `env:"LUDO_MAX_BOTS" envDefault:"3"`
	BotThinkDelay time.Duration `env:"LUDO_BOT_THINK_DELAY" envDefault:"2s"`
	BotJoinDelay  time.Duration `env:"LUDO_BOT_JOIN_DELAY" envDefault:"500ms"`
	BotDifficulty string        `env:"LUDO_BOT_DIFFICULTY" envDefault:"medium"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment config: %w", err)
	}
	if cfg.MaxPlayers < 2 {
		return cfg, fmt.Errorf("LUDO_MAX_PLAYERS must be at least 2, got %d", cfg.MaxPlayers)
	}
	return cfg, nil
}
