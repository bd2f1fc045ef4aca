package config

import (
	"errors"
	"os"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds the ambient settings of the CLIs, populated from environment
// variables. Input paths, the variant and the state filter are command-line
// arguments and live outside Config.
type Config struct {
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional Kafka sink for cleaned rows.
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool

	// Optional SQLite export of the cleaned table.
	SQLitePath string

	// Optional node-exporter textfile for run metrics.
	MetricsTextfile string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	kafkaTopic := strings.TrimSpace(os.Getenv("KAFKA_SINK_TOPIC"))
	kafkaEnabled := kafkaTopic != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:  kafkaTopic,
		KafkaEnabled:    kafkaEnabled,
		SQLitePath:      strings.TrimSpace(os.Getenv("SQLITE_PATH")),
		MetricsTextfile: strings.TrimSpace(os.Getenv("METRICS_TEXTFILE")),
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "json", "text":
	default:
		return nil, errors.New("LOG_FORMAT must be json or text")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when the Kafka sink is enabled")
	}

	return cfg, nil
}
