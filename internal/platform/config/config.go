package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so
// main stays lean. Unset values fall back to development defaults.
type Config struct {
	Addr string

	// PostgresURL selects the persistent store. Empty means the
	// in-memory store (development and tests).
	PostgresURL string

	// RedisURL enables the caller-ID lookup cache. Empty disables it.
	RedisURL string

	// KafkaBrokers enables the Kafka audit publisher. Empty disables it.
	KafkaBrokers    []string
	KafkaAuditTopic string

	LookupCacheTTL time.Duration

	AMI AMIConfig
}

// AMIConfig is the Asterisk Manager Interface connection profile used
// for call origination.
type AMIConfig struct {
	Host     string
	Port     int
	Username string
	Secret   string
	// Channel technology used to reach the user's line; the dialed
	// channel is "<Channel>/<extension>".
	Channel string
	// Context and Priority name the dialplan entry that connects the
	// originated call to the target number.
	Context  string
	Priority int
	// Timeout bounds the whole originate exchange, network dial
	// included. Origination is a single attempt, never retried.
	Timeout time.Duration
}

// Address joins host and port for net.Dial.
func (c AMIConfig) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("SWITCHBOARD_ADDR", ":8080"),
		PostgresURL:     os.Getenv("SWITCHBOARD_POSTGRES_URL"),
		RedisURL:        os.Getenv("SWITCHBOARD_REDIS_URL"),
		KafkaAuditTopic: envOr("SWITCHBOARD_KAFKA_AUDIT_TOPIC", "switchboard.audit"),
		LookupCacheTTL:  envDurationOr("SWITCHBOARD_LOOKUP_CACHE_TTL", 5*time.Minute),
		AMI: AMIConfig{
			Host:     envOr("SWITCHBOARD_AMI_HOST", "127.0.0.1"),
			Port:     envIntOr("SWITCHBOARD_AMI_PORT", 5038),
			Username: envOr("SWITCHBOARD_AMI_USERNAME", "admin"),
			Secret:   os.Getenv("SWITCHBOARD_AMI_SECRET"),
			Channel:  envOr("SWITCHBOARD_AMI_CHANNEL", "SIP"),
			Context:  envOr("SWITCHBOARD_AMI_CONTEXT", "default"),
			Priority: envIntOr("SWITCHBOARD_AMI_PRIORITY", 1),
			Timeout:  envDurationOr("SWITCHBOARD_AMI_TIMEOUT", 10*time.Second),
		},
	}
	if brokers := os.Getenv("SWITCHBOARD_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
