// Package config loads service configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// JWTSigningKey signs access tokens minted by the login pass-through and,
	// when verification is enabled, checks inbound bearer tokens.
	JWTSigningKey  string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	// VerifyTokens enables signature verification on inbound bearer tokens.
	// Off by default: the edge authorizer is trusted to have verified them.
	VerifyTokens bool

	// PostgresDSN selects the Postgres credential store when set; empty means
	// in-memory.
	PostgresDSN string

	Redis RedisConfig

	// KafkaBrokers selects the Kafka audit publisher when non-empty.
	KafkaBrokers    []string
	KafkaAuditTopic string

	ShutdownTimeout time.Duration
}

// RedisConfig selects the Redis profile store when URL is set; empty means
// in-memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("ACCOUNTD_ADDR", ":8080"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:       envOr("JWT_ISSUER", "accountd"),
		AccessTokenTTL:  durationOr("ACCESS_TOKEN_TTL", time.Hour),
		VerifyTokens:    os.Getenv("VERIFY_TOKENS") == "true",
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		KafkaAuditTopic: envOr("KAFKA_AUDIT_TOPIC", "accountd.audit"),
		ShutdownTimeout: durationOr("SHUTDOWN_TIMEOUT", 10*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
