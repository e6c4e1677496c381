package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/venuelink/service-booking/pkg/database"
)

// GatewayConfig holds payment-gateway credentials. Secret signs and verifies
// the callback HMAC.
type GatewayConfig struct {
	KeyID  string
	Secret string
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	DB             database.Config
	JWTSecret      string
	KafkaBrokers   []string
	Gateway        GatewayConfig
	RedisAddr      string
	Currency       string
	ApprovalWindow time.Duration
	SweepInterval  time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CURRENCY", "INR")
	v.SetDefault("BOOKING_APPROVAL_WINDOW", "3h")
	v.SetDefault("EXPIRY_SWEEP_INTERVAL", "1m")

	window, err := time.ParseDuration(v.GetString("BOOKING_APPROVAL_WINDOW"))
	if err != nil {
		return nil, err
	}
	sweep, err := time.ParseDuration(v.GetString("EXPIRY_SWEEP_INTERVAL"))
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{
		Port:   v.GetString("SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DB: database.Config{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTSecret:    v.GetString("JWT_SECRET"),
		KafkaBrokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
		Gateway: GatewayConfig{
			KeyID:  v.GetString("GATEWAY_KEY_ID"),
			Secret: v.GetString("GATEWAY_SECRET"),
		},
		RedisAddr:      v.GetString("REDIS_ADDR"),
		Currency:       v.GetString("CURRENCY"),
		ApprovalWindow: window,
		SweepInterval:  sweep,
	}, nil
}
