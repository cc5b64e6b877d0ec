package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for student-portal
type Config struct {
	Server    ServerConfig
	Questions QuestionsConfig
	Gateway   GatewayConfig
	Widgets   WidgetsConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Health    HealthConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// QuestionsConfig holds where question levels are fetched from
type QuestionsConfig struct {
	BaseURL string
}

// GatewayConfig holds the development gateway routes
type GatewayConfig struct {
	Enabled bool
	Routes  []Route
}

// Route forwards every request under Prefix to Target
type Route struct {
	Prefix string `yaml:"prefix"`
	Target string `yaml:"target"`
}

// WidgetsConfig holds dashboard widget configuration
type WidgetsConfig struct {
	Dir            string
	StreamInterval time.Duration
}

// DatabaseConfig holds PostgreSQL configuration. An empty DSN selects the
// static widget source.
type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
	MaxOpenConns  int
	MaxIdleConns  int
}

// RedisConfig holds Redis configuration. An empty address keeps notification
// read state in memory.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// HealthConfig holds upstream probe configuration
type HealthConfig struct {
	Interval time.Duration
}

// DefaultRoutes are the development routes of the portal
func DefaultRoutes() []Route {
	return []Route{
		{Prefix: "/api", Target: getEnv("GATEWAY_API_TARGET", "http://localhost:8087")},
		{Prefix: "/questions-service", Target: getEnv("GATEWAY_QUESTIONS_TARGET", "http://localhost:8765")},
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 3000),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Questions: QuestionsConfig{
			BaseURL: getEnv("QUESTIONS_BASE_URL", ""),
		},
		Gateway: GatewayConfig{
			Enabled: getEnvAsBool("GATEWAY_ENABLED", true),
			Routes:  DefaultRoutes(),
		},
		Widgets: WidgetsConfig{
			Dir:            getEnv("WIDGETS_DIR", ""),
			StreamInterval: getEnvAsDuration("STREAM_INTERVAL", 30*time.Second),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MigrationsDir: getEnv("DATABASE_MIGRATIONS_DIR", "./migrations"),
			MaxOpenConns:  getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:  getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Health: HealthConfig{
			Interval: getEnvAsDuration("HEALTH_INTERVAL", time.Minute),
		},
	}

	if path := getEnv("GATEWAY_CONFIG", ""); path != "" {
		routes, err := LoadRoutes(path)
		if err != nil {
			return nil, err
		}
		cfg.Gateway.Routes = routes
	}

	// Without an explicit base URL the portal reaches the questions service
	// through its own gateway.
	if cfg.Questions.BaseURL == "" {
		cfg.Questions.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// gatewayFile represents the YAML structure of a gateway config file
type gatewayFile struct {
	Routes []Route `yaml:"routes"`
}

// LoadRoutes reads gateway routes from a YAML file
func LoadRoutes(path string) ([]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway config: %w", err)
	}

	var gf gatewayFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("failed to parse gateway config: %w", err)
	}

	if len(gf.Routes) == 0 {
		return nil, fmt.Errorf("gateway config %s has no routes", path)
	}

	return gf.Routes, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if _, err := url.ParseRequestURI(c.Questions.BaseURL); err != nil {
		return fmt.Errorf("invalid questions base url %q: %w", c.Questions.BaseURL, err)
	}

	seen := make(map[string]bool)
	for _, r := range c.Gateway.Routes {
		if !strings.HasPrefix(r.Prefix, "/") {
			return fmt.Errorf("gateway prefix must start with '/': %q", r.Prefix)
		}
		prefix := NormalizePrefix(r.Prefix)
		if seen[prefix] {
			return fmt.Errorf("duplicate gateway prefix: %s", r.Prefix)
		}
		seen[prefix] = true

		u, err := url.Parse(r.Target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid gateway target for %s: %q", r.Prefix, r.Target)
		}
	}

	if c.Widgets.StreamInterval <= 0 {
		return fmt.Errorf("stream interval must be positive")
	}

	return nil
}

// NormalizePrefix drops trailing slashes so /api and /api/ name the same route
func NormalizePrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return "/"
	}
	return prefix
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
