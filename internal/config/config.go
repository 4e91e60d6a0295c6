// Package config handles loading and parsing application configuration.
//
// The server reads a YAML file whose path comes from (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every key can be overridden by the environment variable named in its
// env:"..." tag. A .env file in the working directory, when present, is
// loaded into the environment first.
//
// The client tools (CLI and terminal UI) read their settings from the
// environment only, see LoadClient.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration structure of the API server.
//
// env-required:"true" means the app refuses to start if that value is
// missing.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	CORS       CORS       `yaml:"cors"`
}

// Storage selects the repository backend.
type Storage struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`

	// DSN is a file path for sqlite and a postgres:// URL for postgres.
	DSN string `yaml:"dsn" env:"STORAGE_DSN" env-required:"true"`

	// Pool settings, postgres only.
	MaxConns int32 `yaml:"max_conns" env:"STORAGE_MAX_CONNS" env-default:"25"`
	MinConns int32 `yaml:"min_conns" env:"STORAGE_MIN_CONNS" env-default:"5"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// CORS lists the browser origins allowed to call the API.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
}

// Client is the configuration of the CLI and terminal front end.
type Client struct {
	Env     string        `env:"ENV" env-default:"dev"`
	APIURL  string        `env:"STUDENTS_API_URL" env-default:"http://localhost:8082/api"`
	Timeout time.Duration `env:"STUDENTS_API_TIMEOUT" env-default:"10s"`
}

// MustLoad reads, validates, and returns the server config.
//
// Functions prefixed with "Must" are allowed to fatal on failure. If this
// function returns, the config is valid.
func MustLoad() *Config {
	loadDotEnv()

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err.Error())
	}

	return cfg
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &os.PathError{Op: "config", Path: path, Err: os.ErrNotExist}
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadClient reads the client settings from the environment (and .env).
func LoadClient() (*Client, error) {
	loadDotEnv()

	var cfg Client
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres:
		return nil
	default:
		return &UnknownDriverError{Driver: c.Storage.Driver}
	}
}

// UnknownDriverError reports an unsupported storage.driver value.
type UnknownDriverError struct {
	Driver string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown storage driver %q: use %s or %s", e.Driver, DriverSQLite, DriverPostgres)
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("cannot load .env: %s", err.Error())
	}
}
