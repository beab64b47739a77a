package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration (graph artifacts on S3, optional distributed rate limits)
	AWSRegion      string
	RateLimitTable string

	// Domain registry
	DomainsFile string
	// Single-domain fallback used when no domains file is configured
	PrimaryDomainID   string
	PrimaryDomainName string
	PrimaryKGPath     string
	DocVectorStoreID  string
	KGVectorStoreID   string

	// Generation service
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	DiscoveryModel  string
	GenerationModel string

	// Background tasks
	TaskDBPath  string
	TaskWorkers int

	// Authentication and rate limiting
	JWTSecret         string
	JWTIssuer         string
	RequestsPerMinute int

	// Logging and features
	LogLevel   string
	EnableCORS bool
	EnableAuth bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-west-2"),
		RateLimitTable: getEnv("RATE_LIMIT_TABLE", ""),

		DomainsFile:       getEnv("DOMAINS_FILE", ""),
		PrimaryDomainID:   getEnv("PRIMARY_DOMAIN_ID", "default"),
		PrimaryDomainName: getEnv("PRIMARY_DOMAIN_NAME", "Default"),
		PrimaryKGPath:     getEnv("KG_PATH", ""),
		DocVectorStoreID:  getEnv("DOC_VECTORSTORE_ID", ""),
		KGVectorStoreID:   getEnv("KG_VECTORSTORE_ID", ""),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		DiscoveryModel:  getEnv("DISCOVERY_MODEL", "gpt-4.1-mini"),
		GenerationModel: getEnv("GENERATION_MODEL", "gpt-4.1"),

		TaskDBPath:  getEnv("TASK_DB_PATH", "tasks.db"),
		TaskWorkers: getEnvInt("TASK_WORKERS", 4),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTIssuer:         getEnv("JWT_ISSUER", "ekg-backend"),
		RequestsPerMinute: getEnvInt("REQUESTS_PER_MINUTE", 100),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),
		EnableAuth: getEnvBool("ENABLE_AUTH", false),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.TaskWorkers < 1 {
		return fmt.Errorf("TASK_WORKERS must be at least 1")
	}
	if c.Environment == "production" {
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required in production")
		}
		if c.DomainsFile == "" && c.PrimaryKGPath == "" {
			return fmt.Errorf("either DOMAINS_FILE or KG_PATH is required")
		}
		if c.EnableAuth && c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when auth is enabled")
		}
	}

	return nil
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
