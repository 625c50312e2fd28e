/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the enrollment-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort          string `mapstructure:"SERVER_PORT"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	RedisDedupePrefix   string `mapstructure:"REDIS_DEDUPE_PREFIX"`
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	ClerkWebhookSecret  string `mapstructure:"CLERK_WEBHOOK_SECRET"`
	ClerkJWKSURL        string `mapstructure:"CLERK_JWKS_URL"`
	InternalAPIKey      string `mapstructure:"INTERNAL_API_KEY"`
	WebhookDedupeTTLMin int    `mapstructure:"WEBHOOK_DEDUPE_TTL_MINUTES"`
	PendingPurchaseTTLH int    `mapstructure:"PENDING_PURCHASE_TTL_HOURS"`
	SweepSchedule       string `mapstructure:"PURCHASE_SWEEP_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_DEDUPE_PREFIX", "learnhub:webhook_events")
	viper.SetDefault("WEBHOOK_DEDUPE_TTL_MINUTES", 1440)
	viper.SetDefault("PENDING_PURCHASE_TTL_HOURS", 24)
	viper.SetDefault("PURCHASE_SWEEP_SCHEDULE", "@hourly")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_DEDUPE_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("STRIPE_SECRET_KEY")
	_ = viper.BindEnv("STRIPE_WEBHOOK_SECRET")
	_ = viper.BindEnv("CLERK_WEBHOOK_SECRET")
	_ = viper.BindEnv("CLERK_JWKS_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "ENROLLMENT_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("WEBHOOK_DEDUPE_TTL_MINUTES")
	_ = viper.BindEnv("PENDING_PURCHASE_TTL_HOURS")
	_ = viper.BindEnv("PURCHASE_SWEEP_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// Hosting platforms inject PORT; prefer it when present.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("ENROLLMENT_SERVICE_INTERNAL_API_KEY"))
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisDedupePrefix = strings.TrimSpace(config.RedisDedupePrefix)
	if config.RedisDedupePrefix == "" {
		config.RedisDedupePrefix = "learnhub:webhook_events"
	}
	if config.WebhookDedupeTTLMin <= 0 {
		config.WebhookDedupeTTLMin = 1440
	}
	if config.PendingPurchaseTTLH <= 0 {
		config.PendingPurchaseTTLH = 24
	}
	if strings.TrimSpace(config.SweepSchedule) == "" {
		config.SweepSchedule = "@hourly"
	}

	return
}
