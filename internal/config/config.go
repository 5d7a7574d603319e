package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// Storage backends.
const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	Env string `yaml:"env"`
	// BaseURL overrides the request-derived origin when computing short URLs.
	BaseURL    string `yaml:"base_url"`
	Storage    string `yaml:"storage"`
	HTTPServer `yaml:"http_server"`
	Redis      `yaml:"redis"`
	Auth       `yaml:"auth"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
	// AllowedOrigins is the CORS allow-list for the admin client.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
	AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Redis struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

var defaultRedis = Redis{
	Host: "localhost",
	Port: 6379,
}

func (r *Redis) DSN() string {
	return fmt.Sprintf("redis://:%s@%s:%d/%d", r.Password, r.Host, r.Port, r.DB)
}

type Auth struct {
	// GoogleClientID is the OAuth client id tokens must be issued to.
	GoogleClientID string `yaml:"google_client_id"`
	// JWKSURL overrides the Google key set endpoint; empty means the default.
	JWKSURL string `yaml:"jwks_url"`
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if cfg.Auth.GoogleClientID == "" {
		return nil, fmt.Errorf("%s: auth.google_client_id is required", op)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.Storage = StorageRedis
	cfg.HTTPServer = defaultHTTPServer
	cfg.Redis = defaultRedis
}
