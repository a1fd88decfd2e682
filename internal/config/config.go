// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`
	// DatabaseURL empty selects the in-memory snapshot store.
	DatabaseURL     string        `env:"DATABASE_URL"`
	RoomIdleTimeout time.Duration `env:"ROOM_IDLE_TIMEOUT" envDefault:"6h"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	Dev             bool          `env:"DEV" envDefault:"false"`
}

func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
