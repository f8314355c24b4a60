package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr        string
	DatabaseURL string // empty means in-memory stores
	RedisURL    string // empty means no distributed notified-guard

	// KafkaBrokers feed the audit sink; empty disables Kafka publishing.
	KafkaBrokers []string
	AuditTopic   string

	SMTP     SMTPConfig
	WhatsApp WhatsAppConfig

	// NotifyTimeout bounds each outbound channel attempt.
	NotifyTimeout time.Duration

	// RemoteCap limits how many remote-tier donors are notified per
	// request. 0 means unlimited, which is the default policy.
	RemoteCap int
}

// SMTPConfig configures the email channel. Email is considered configured
// when Username is non-empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// WhatsAppConfig configures the secondary messaging channel. The channel is
// considered unconfigured (attempts are skipped, not failed) when AccountSID
// is empty.
type WhatsAppConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("BLOODLINK_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		AuditTopic:    envOr("AUDIT_TOPIC", "bloodlink.match-events"),
		NotifyTimeout: envDuration("NOTIFY_TIMEOUT", 5*time.Second),
		RemoteCap:     envInt("REMOTE_DONOR_CAP", 0),
		SMTP: SMTPConfig{
			Host:     envOr("SMTP_HOST", "smtp.gmail.com"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		WhatsApp: WhatsAppConfig{
			AccountSID: os.Getenv("WHATSAPP_ACCOUNT_SID"),
			AuthToken:  os.Getenv("WHATSAPP_AUTH_TOKEN"),
			FromNumber: os.Getenv("WHATSAPP_FROM_NUMBER"),
			BaseURL:    envOr("WHATSAPP_API_URL", "https://api.twilio.com"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
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

func envDuration(key string, fallback time.Duration) time.Duration {
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
