package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Karigar"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Mongo struct {
		URI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
		Database string `envconfig:"MONGO_DATABASE" default:"karigar"`
	}

	Auth struct {
		JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
		TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
		BcryptCost int           `envconfig:"BCRYPT_COST" default:"0"`
	}

	Recon struct {
		// Schedule is a cron expression for the pending-recalculation sweep.
		Schedule string `envconfig:"RECON_SCHEDULE" default:"@every 1m"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
