package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the configuration settings for the application.
type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"8080"`   // Port on which the app will run
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"` // logrus level name

	ChessAPIEndpoint string        `env:"CHESS_API_ENDPOINT" envDefault:"https://api.chess.com/pub"` // Chess.com public API endpoint
	UserAgent        string        `env:"CHESS_API_USER_AGENT" envDefault:"chess-card/1.0 (+https://github.com/gbasileGP/chess-card)"`
	UpstreamTimeout  time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"` // Applies to player data and avatar fetches
	AvatarMaxBytes   int           `env:"AVATAR_MAX_BYTES" envDefault:"5242880"` // Larger avatar bodies fail the render

	RedisAddr string `env:"REDIS_ADDR"` // Redis server address; empty disables the render tally
	RedisPass string `env:"REDIS_PASS"` // Redis password
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT"` // MinIO endpoint; empty disables the card archive
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"chess-cards"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"true"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: LoadConfig - parse env: %w", err)
	}
	if cfg.UpstreamTimeout <= 0 {
		return nil, fmt.Errorf("config: LoadConfig - UPSTREAM_TIMEOUT must be positive, got %s", cfg.UpstreamTimeout)
	}
	if cfg.AvatarMaxBytes <= 0 {
		return nil, fmt.Errorf("config: LoadConfig - AVATAR_MAX_BYTES must be positive, got %d", cfg.AvatarMaxBytes)
	}
	return cfg, nil
}

// TallyEnabled reports whether a Redis address was configured.
func (c *Config) TallyEnabled() bool {
	return c.RedisAddr != ""
}

// ArchiveEnabled reports whether a MinIO endpoint was configured.
func (c *Config) ArchiveEnabled() bool {
	return c.MinioEndpoint != ""
}
