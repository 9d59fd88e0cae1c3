package config

import (
	"os"
	"strconv"
	"time"

	"expohall/internal/database"
	"expohall/internal/external"
	"expohall/internal/messaging"
)

// Config holds the full application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	Database      database.Config
	NATS          messaging.Config
	Elasticsearch ElasticsearchConfig
	Notify        external.NotifyConfig
	Renderer      external.RendererConfig
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "expohall"),
			Password:           getEnv("DB_PASSWORD", "expohall"),
			DBName:             getEnv("DB_NAME", "expohall"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "expohall"),
			ClientID:  getEnv("NATS_CLIENT_ID", "expohall-api"),
		},

		Elasticsearch: ElasticsearchConfig{
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:      getEnv("ELASTICSEARCH_INDEX", "events"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},

		Notify: external.NotifyConfig{
			BaseURL: getEnv("NOTIFY_SERVICE_URL", "http://localhost:8090"),
			Timeout: time.Duration(getEnvInt("NOTIFY_TIMEOUT_SEC", 10)) * time.Second,
		},

		Renderer: external.RendererConfig{
			BaseURL: getEnv("RENDERER_SERVICE_URL", "http://localhost:8091"),
			Timeout: time.Duration(getEnvInt("RENDERER_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

// getEnv returns the value of an environment variable or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
