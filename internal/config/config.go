package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every environment-driven setting the service needs at boot.
type Config struct {
	ServiceHost string
	ServicePort string

	DB DB

	AuthPublicKeyFile string

	RazorpayKeyID     string
	RazorpayKeySecret string

	KafkaBrokers []string

	// Optional; registration is skipped when empty.
	ConsulAddr string

	SweepInterval time.Duration
	SweepMinAge   time.Duration
}

// DB holds the postgres connection settings.
type DB struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the postgres connection string for the pgx stdlib driver.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Name, d.SSLMode)
}

// Load reads the .env file if present and resolves the full configuration.
// Missing required values are reported as a single error so boot fails fast.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServiceHost: getEnvOrDefault("SERVICE_HOST", "localhost"),
		ServicePort: getEnvOrDefault("SERVICE_PORT", "8080"),
		DB: DB{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			Name:     getEnvOrDefault("DB_NAME", "storefront"),
			SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
		},
		AuthPublicKeyFile: getEnvOrDefault("AUTH_PUBLIC_KEY_FILE", "pubkey.pem"),
		RazorpayKeyID:     strings.TrimSpace(os.Getenv("RAZORPAY_KEY_ID")),
		RazorpayKeySecret: strings.TrimSpace(os.Getenv("RAZORPAY_KEY_SECRET")),
		ConsulAddr:        strings.TrimSpace(os.Getenv("CONSUL_HTTP_ADDR")),
		SweepInterval:     getDurationEnv("SWEEP_INTERVAL_SECONDS", 300, time.Second),
		SweepMinAge:       getDurationEnv("SWEEP_MIN_AGE_SECONDS", 900, time.Second),
	}

	brokers := getEnvOrDefault("KAFKA_BROKERS", "localhost:9092")
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	var missing []string
	if cfg.RazorpayKeyID == "" {
		missing = append(missing, "RAZORPAY_KEY_ID")
	}
	if cfg.RazorpayKeySecret == "" {
		missing = append(missing, "RAZORPAY_KEY_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required env not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
