package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel  int       `env:"LOG_LEVEL" envDefault:"0"`
	HTTP      HTTP      `envPrefix:"HTTP_"`
	Database  Database  `envPrefix:"DATABASE_"`
	JWT       JWT       `envPrefix:"JWT_"`
	Verifier  Verifier  `envPrefix:"VERIFIER_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	Archive   Archive   `envPrefix:"MINIO_"`
}

// HTTP contains HTTP server parameters.
type HTTP struct {
	Port               string `env:"PORT" envDefault:"8080"`
	EnableHTTPS        bool   `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
}

// Database contains database connection parameters. An empty DSN selects
// the in-memory store.
type Database struct {
	DSN string `env:"DSN" envDefault:""`
}

// JWT contains caller-token parameters shared with the host environment.
type JWT struct {
	Secret string `env:"SECRET" envDefault:"devsecret"`
}

// Verifier pins the single principal allowed to mutate the store and the
// secret key material seeding key derivation. Both are fixed for the
// process lifetime.
type Verifier struct {
	ID           string `env:"ID,required"`
	EncryptedKey string `env:"ENCRYPTED_KEY,required"`
}

// RateLimit contains edge rate limiting parameters. Zero requests disables
// the limiter.
type RateLimit struct {
	Requests int           `env:"REQUESTS" envDefault:"0"`
	Window   time.Duration `env:"WINDOW" envDefault:"1m"`
}

// Redis contains the limiter backend parameters. An empty address selects
// the in-memory limiter.
type Redis struct {
	Addr     string `env:"ADDR" envDefault:""`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}

// Archive contains object storage parameters for audit log export. An
// empty endpoint disables archival.
type Archive struct {
	Endpoint  string `env:"ENDPOINT" envDefault:""`
	AccessKey string `env:"ACCESS_KEY" envDefault:""`
	SecretKey string `env:"SECRET_KEY" envDefault:""`
	Bucket    string `env:"BUCKET_NAME" envDefault:"veristore-audit"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
