package config

import (
	"errors"
	"os"
)

// Config carries all environment-driven settings for the service.
type Config struct {
	Port          string
	MongoURI      string
	RedisAddr     string
	JWTSecret     string
	AllowedOrigin string
}

// LoadConfig reads the environment. An empty MongoURI means the in-memory
// store; an empty RedisAddr disables the cross-instance event bus.
func LoadConfig() (*Config, error) {
	config := &Config{
		Port:          getEnvOrDefault("PORT", "3000"),
		MongoURI:      os.Getenv("MONGO_URI"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		JWTSecret:     getEnvOrDefault("JWT_SECRET", "your-secret-key"),
		AllowedOrigin: getEnvOrDefault("ALLOWED_ORIGIN", "http://localhost:5173"),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if config.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
