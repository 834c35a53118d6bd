package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Threshold persistence backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// FTP file source.
	FTPHost     string
	FTPPort     int
	FTPUser     string
	FTPPassword string
	FTPTimeout  time.Duration

	StationTimezone *time.Location
	RefreshInterval time.Duration

	// Threshold persistence.
	ThresholdBackend    string
	ThresholdFile       string
	ThresholdSQLitePath string

	// Optional Kafka result sink.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaResultTopic string
}

// FTPAddr returns host:port of the file source.
func (c *Config) FTPAddr() string {
	return fmt.Sprintf("%s:%d", c.FTPHost, c.FTPPort)
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory, when present, seeds variables
// that are not already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	ftpTimeout, err := parseDuration("FTP_TIMEOUT", "15s", false)
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "60s", true)
	if err != nil {
		return nil, err
	}

	ftpPort, err := strconv.Atoi(sharedcfg.EnvOrDefault("FTP_PORT", "21"))
	if err != nil || ftpPort <= 0 || ftpPort > 65535 {
		return nil, errors.New("invalid FTP_PORT")
	}

	zone := sharedcfg.EnvOrDefault("STATION_TIMEZONE", "America/Sao_Paulo")
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("invalid STATION_TIMEZONE %q: %w", zone, err)
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FTPHost:     os.Getenv("FTP_HOST"),
		FTPPort:     ftpPort,
		FTPUser:     sharedcfg.EnvOrDefault("FTP_USER", "anonymous"),
		FTPPassword: os.Getenv("FTP_PASSWORD"),
		FTPTimeout:  ftpTimeout,

		StationTimezone: loc,
		RefreshInterval: refreshInterval,

		ThresholdBackend:    sharedcfg.EnvOrDefault("THRESHOLD_BACKEND", BackendFile),
		ThresholdFile:       sharedcfg.EnvOrDefault("THRESHOLD_FILE", "limits/thresholds.json"),
		ThresholdSQLitePath: sharedcfg.EnvOrDefault("THRESHOLD_SQLITE_PATH", "limits/thresholds.db"),

		KafkaEnabled:     kafkaEnabled,
		KafkaBrokers:     brokers,
		KafkaResultTopic: sharedcfg.EnvOrDefault("KAFKA_RESULT_TOPIC", "station-results"),
	}

	if cfg.FTPHost == "" {
		return nil, errors.New("FTP_HOST is required")
	}
	if cfg.ThresholdBackend != BackendFile && cfg.ThresholdBackend != BackendSQLite {
		return nil, fmt.Errorf("invalid THRESHOLD_BACKEND %q: want %s or %s", cfg.ThresholdBackend, BackendFile, BackendSQLite)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaResultTopic == "" {
		return nil, errors.New("KAFKA_RESULT_TOPIC is required")
	}

	return cfg, nil
}

// parseDuration reads a positive duration, or zero when allowZero is set.
func parseDuration(key, fallback string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
