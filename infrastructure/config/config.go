package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	domaincfg "dialograph/domain/config"
)

// WebSocketConfig holds settings for the refresh-notification hub
type WebSocketConfig struct {
	Enabled          bool
	MaxConnections   int `validate:"gt=0"`
	MessageQueueSize int `validate:"gt=0"`
}

// Config holds all application configuration, loaded from environment
// variables with sensible development defaults
type Config struct {
	// Server configuration
	ServerAddress string `validate:"required"`
	Environment   string `validate:"oneof=development staging production"`

	// Logging
	LogLevel string `validate:"oneof=debug info warn error"`

	// Feature flags
	EnableMetrics bool
	EnableCORS    bool

	// Maintenance loop
	MaintenanceInterval time.Duration `validate:"gt=0"`

	// Path of the dynamic tuning file watched at runtime; empty
	// disables hot reload
	DynamicConfigPath string

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Graph engine tuning
	Domain *domaincfg.DomainConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	domain := domaincfg.DefaultDomainConfig()
	domain.MaxNodesPerGraph = getEnvInt("GRAPH_MAX_NODES", domain.MaxNodesPerGraph)
	domain.MaxEdgesPerGraph = getEnvInt("GRAPH_MAX_EDGES", domain.MaxEdgesPerGraph)
	domain.HistoryLimit = getEnvInt("GRAPH_HISTORY_LIMIT", domain.HistoryLimit)
	domain.EdgeDecayRatePerHour = getEnvFloat("GRAPH_DECAY_RATE_PER_HOUR", domain.EdgeDecayRatePerHour)
	domain.PruneThreshold = getEnvFloat("GRAPH_PRUNE_THRESHOLD", domain.PruneThreshold)

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),

		MaintenanceInterval: time.Duration(getEnvInt("MAINTENANCE_INTERVAL_SECONDS", 300)) * time.Second,
		DynamicConfigPath:   getEnv("DYNAMIC_CONFIG_PATH", ""),

		WebSocket: WebSocketConfig{
			Enabled:          getEnvBool("WEBSOCKET_ENABLED", true),
			MaxConnections:   getEnvInt("WEBSOCKET_MAX_CONNECTIONS", 256),
			MessageQueueSize: getEnvInt("WEBSOCKET_QUEUE_SIZE", 64),
		},

		Domain: domain,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks structural constraints on the configuration
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
