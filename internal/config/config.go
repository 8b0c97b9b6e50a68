package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DBURL           string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Cache TTLs per operation family.
	FaultContextTTL time.Duration
	ClusterTTL      time.Duration
	DefinitionTTL   time.Duration

	// Fault context query defaults, used when the caller omits them.
	DefaultSearchRadiusKm float64
	DefaultFaultLimit     int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	faultContextTTL, err := parseDuration("FAULT_CONTEXT_CACHE_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	clusterTTL, err := parseDuration("CLUSTER_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	definitionTTL, err := parseDuration("DEFINITION_CACHE_TTL", 6*time.Hour)
	if err != nil {
		return nil, err
	}

	radius, err := parseFloat("DEFAULT_SEARCH_RADIUS_KM", 100)
	if err != nil {
		return nil, err
	}
	limit, err := parseInt("DEFAULT_FAULT_LIMIT", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBURL:           os.Getenv("DB_URL"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FaultContextTTL: faultContextTTL,
		ClusterTTL:      clusterTTL,
		DefinitionTTL:   definitionTTL,

		DefaultSearchRadiusKm: radius,
		DefaultFaultLimit:     limit,
	}

	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is required")
	}
	if cfg.DefaultSearchRadiusKm <= 0 {
		return nil, errors.New("DEFAULT_SEARCH_RADIUS_KM must be positive")
	}
	if cfg.DefaultFaultLimit <= 0 {
		return nil, errors.New("DEFAULT_FAULT_LIMIT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
