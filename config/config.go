package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	// HTTP server configuration
	HTTP HTTPConfig

	// LLM completion client configuration
	LLM LLMConfig

	// Auth configuration
	Auth AuthConfig

	// Store configuration
	Store StoreConfig

	// Agent behaviour configuration
	Agent AgentConfig
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Host string
	Port int
}

// LLMConfig holds OpenAI-compatible completion client configuration
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// AuthConfig holds token issuance and admin access configuration
type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
	AdminKey    string
}

// StoreBackend selects the storage implementation
type StoreBackend string

const (
	StoreBackendSQLite  StoreBackend = "sqlite"
	StoreBackendMongoDB StoreBackend = "mongodb"
)

// StoreConfig holds storage configuration
type StoreConfig struct {
	Backend    StoreBackend
	SQLitePath string
	MongoURI   string
	MongoDB    string
	Seed       bool
}

// AgentConfig holds sales agent behaviour flags
type AgentConfig struct {
	// ProactiveKnowledgeCapture selects the system prompt variant that tells the
	// model to record newly observed facts immediately rather than on request.
	ProactiveKnowledgeCapture bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Host: getEnvString("SALESAGENT_HTTP_HOST", "0.0.0.0"),
			Port: getEnvInt("SALESAGENT_HTTP_PORT", 8000),
		},
		LLM: LLMConfig{
			APIKey:  getEnvString("OPENAI_API_KEY", ""),
			BaseURL: getEnvString("OPENAI_BASE_URL", ""),
			Model:   getEnvString("SALESAGENT_MODEL", "gpt-4-turbo-preview"),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnvString("SECRET_KEY", "your-secret-key-for-jwt-keep-it-safe"),
			TokenExpiry: time.Duration(getEnvInt("SALESAGENT_TOKEN_EXPIRY_MINUTES", 60*24)) * time.Minute,
			AdminKey:    getEnvString("ADMIN_KEY", "adam-secret-key-2026"),
		},
		Store: StoreConfig{
			Backend:    StoreBackend(getEnvString("SALESAGENT_STORE_BACKEND", string(StoreBackendSQLite))),
			SQLitePath: getEnvString("SALESAGENT_SQLITE_PATH", "./sales.db"),
			MongoURI:   getEnvString("SALESAGENT_MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:    getEnvString("SALESAGENT_MONGO_DB", "salesagent"),
			Seed:       getEnvBool("SALESAGENT_SEED", true),
		},
		Agent: AgentConfig{
			ProactiveKnowledgeCapture: getEnvBool("SALESAGENT_PROACTIVE_KNOWLEDGE", true),
		},
	}

	if cfg.Store.Backend != StoreBackendSQLite && cfg.Store.Backend != StoreBackendMongoDB {
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}

	return cfg, nil
}

// GetAddress returns the HTTP server address
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// Helper functions for environment variables
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
