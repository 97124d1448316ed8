package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	MaxDBConns               int32
	KafkaConsumerGroup       string
	KafkaTopicUserRegistered string
	KafkaTopicUserDeleted    string
	KafkaTopicProfileEvents  string
	KafkaTopicWelcomeEmail   string

	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration

	JWTSecret string
	JWTIssuer string

	RateLimitPerMinute int

	CacheSweepInterval time.Duration
	CacheMaxEntryAge   time.Duration

	UsernameCooldownDays int
	UsernameRedirectDays int
	IdempotencyTTL       time.Duration
	EventDedupTTL        time.Duration
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL              string   `yaml:"postgres_url"`
		RedisURL                 string   `yaml:"redis_url"`
		KafkaBrokers             []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup       string   `yaml:"kafka_consumer_group"`
		KafkaTopicUserRegistered string   `yaml:"kafka_topic_user_registered"`
		KafkaTopicUserDeleted    string   `yaml:"kafka_topic_user_deleted"`
		KafkaTopicProfileEvents  string   `yaml:"kafka_topic_profile_events"`
		KafkaTopicWelcomeEmail   string   `yaml:"kafka_topic_welcome_email"`
	} `yaml:"dependencies"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		JWTIssuer string `yaml:"jwt_issuer"`
	} `yaml:"auth"`
	Limits struct {
		RateLimitPerMinute   int `yaml:"rate_limit_per_minute"`
		UsernameCooldownDays int `yaml:"username_cooldown_days"`
		UsernameRedirectDays int `yaml:"username_redirect_days"`
	} `yaml:"limits"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                "profile-service",
		HTTPPort:                 8080,
		MaxDBConns:               20,
		KafkaConsumerGroup:       "profile-service",
		KafkaTopicUserRegistered: "user.registered",
		KafkaTopicUserDeleted:    "user.deleted",
		KafkaTopicProfileEvents:  "profile.events",
		KafkaTopicWelcomeEmail:   "notification.welcome_email",
		OutboxPollInterval:       2 * time.Second,
		OutboxBatchSize:          100,
		ConsumerPollInterval:     2 * time.Second,
		RateLimitPerMinute:       30,
		CacheSweepInterval:       time.Minute,
		CacheMaxEntryAge:         24 * time.Hour,
		UsernameCooldownDays:     30,
		UsernameRedirectDays:     90,
		IdempotencyTTL:           7 * 24 * time.Hour,
		EventDedupTTL:            7 * 24 * time.Hour,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		if f.Dependencies.KafkaTopicUserRegistered != "" {
			cfg.KafkaTopicUserRegistered = f.Dependencies.KafkaTopicUserRegistered
		}
		if f.Dependencies.KafkaTopicUserDeleted != "" {
			cfg.KafkaTopicUserDeleted = f.Dependencies.KafkaTopicUserDeleted
		}
		if f.Dependencies.KafkaTopicProfileEvents != "" {
			cfg.KafkaTopicProfileEvents = f.Dependencies.KafkaTopicProfileEvents
		}
		if f.Dependencies.KafkaTopicWelcomeEmail != "" {
			cfg.KafkaTopicWelcomeEmail = f.Dependencies.KafkaTopicWelcomeEmail
		}
		if f.Auth.JWTSecret != "" {
			cfg.JWTSecret = f.Auth.JWTSecret
		}
		if f.Auth.JWTIssuer != "" {
			cfg.JWTIssuer = f.Auth.JWTIssuer
		}
		if f.Limits.RateLimitPerMinute > 0 {
			cfg.RateLimitPerMinute = f.Limits.RateLimitPerMinute
		}
		if f.Limits.UsernameCooldownDays > 0 {
			cfg.UsernameCooldownDays = f.Limits.UsernameCooldownDays
		}
		if f.Limits.UsernameRedirectDays > 0 {
			cfg.UsernameRedirectDays = f.Limits.UsernameRedirectDays
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.KafkaTopicUserRegistered = envOrDefault("KAFKA_TOPIC_USER_REGISTERED", cfg.KafkaTopicUserRegistered)
	cfg.KafkaTopicUserDeleted = envOrDefault("KAFKA_TOPIC_USER_DELETED", cfg.KafkaTopicUserDeleted)
	cfg.KafkaTopicProfileEvents = envOrDefault("KAFKA_TOPIC_PROFILE_EVENTS", cfg.KafkaTopicProfileEvents)
	cfg.KafkaTopicWelcomeEmail = envOrDefault("KAFKA_TOPIC_WELCOME_EMAIL", cfg.KafkaTopicWelcomeEmail)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = envOrDefault("JWT_ISSUER", cfg.JWTIssuer)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.RateLimitPerMinute = envInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.CacheSweepInterval = time.Duration(envInt("CACHE_SWEEP_SECONDS", int(cfg.CacheSweepInterval.Seconds()))) * time.Second
	cfg.CacheMaxEntryAge = time.Duration(envInt("CACHE_MAX_ENTRY_AGE_HOURS", int(cfg.CacheMaxEntryAge.Hours()))) * time.Hour
	cfg.UsernameCooldownDays = envInt("USERNAME_CHANGE_COOLDOWN_DAYS", cfg.UsernameCooldownDays)
	cfg.UsernameRedirectDays = envInt("USERNAME_REDIRECT_DAYS", cfg.UsernameRedirectDays)
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
