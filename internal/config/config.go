package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI   string `env:"MONGO_URI"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBSource   string `env:"DB_SOURCE"`
	DBName     string `env:"DB_NAME" envDefault:"places"`

	JWTKey   string        `env:"JWT_KEY,required"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	Port      string `env:"PORT" envDefault:"5000"`
	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads/images"`
	GinMode   string `env:"GIN_MODE" envDefault:"debug"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	GoogleAPIKey   string        `env:"GOOGLE_API_KEY"`
	GeocodeTimeout time.Duration `env:"GEOCODE_TIMEOUT" envDefault:"5s"`
}

// Load reads an optional .env file and then the process environment.
// A missing .env is fine; a malformed one is not.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg.JWTKey = strings.TrimSpace(cfg.JWTKey)
	if cfg.JWTKey == "" {
		return nil, errors.New("read config: JWT_KEY must not be blank")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("read config: TOKEN_TTL must be positive")
	}
	if cfg.ConnectionURI() == "" {
		return nil, errors.New("read config: MONGO_URI or DB_SOURCE is required")
	}
	return cfg, nil
}

// ConnectionURI prefers MONGO_URI and otherwise builds an Atlas SRV URI from the DB_* parts.
func (c *Config) ConnectionURI() string {
	if uri := strings.TrimSpace(c.MongoURI); uri != "" {
		return uri
	}
	source := strings.TrimSpace(c.DBSource)
	if source == "" {
		return ""
	}

	u := url.URL{
		Scheme:   "mongodb+srv",
		Host:     source,
		Path:     "/" + c.DBName,
		RawQuery: "retryWrites=true&w=majority",
	}
	if c.DBUser != "" {
		u.User = url.UserPassword(c.DBUser, c.DBPassword)
	}
	return u.String()
}
