package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP Server
	Port string

	// Ledger store
	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8000"),
		StoreDriver:   getEnv("STORE_DRIVER", "mongo"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "expense_tracker"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 0 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 0 and 65535", port))
	}

	switch c.StoreDriver {
	case "mongo":
		if c.MongoURI == "" {
			errs = append(errs, "MONGO_URI cannot be empty when using the mongo driver")
		}
		if c.MongoDatabase == "" {
			errs = append(errs, "MONGO_DATABASE cannot be empty when using the mongo driver")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL cannot be empty when using the postgres driver")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("invalid store driver '%s': must be one of [mongo postgres memory]", c.StoreDriver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
