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

// Config holds all the configuration variables for the payout-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort          string `mapstructure:"SERVER_PORT"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	TaskExchange        string `mapstructure:"TASK_EXCHANGE"`
	PayoutTaskQueue     string `mapstructure:"PAYOUT_TASK_QUEUE"`
	AuthJWTSecret       string `mapstructure:"AUTH_JWT_SECRET"`
	ProviderDelayMS     int    `mapstructure:"PROVIDER_DELAY_MS"`
	ListCacheTTLSeconds int    `mapstructure:"LIST_CACHE_TTL_SECONDS"`
	ListPageSize        int    `mapstructure:"LIST_PAGE_SIZE"`
	ListMaxPageSize     int    `mapstructure:"LIST_MAX_PAGE_SIZE"`
	TaskMaxRetries      int    `mapstructure:"TASK_MAX_RETRIES"`
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
	viper.SetDefault("TASK_EXCHANGE", "payout_tasks")
	viper.SetDefault("PAYOUT_TASK_QUEUE", "payout_service.tasks")
	viper.SetDefault("PROVIDER_DELAY_MS", 2000)
	viper.SetDefault("LIST_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("LIST_PAGE_SIZE", 20)
	viper.SetDefault("LIST_MAX_PAGE_SIZE", 100)
	viper.SetDefault("TASK_MAX_RETRIES", 5)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("TASK_EXCHANGE")
	_ = viper.BindEnv("PAYOUT_TASK_QUEUE")
	_ = viper.BindEnv("AUTH_JWT_SECRET")
	_ = viper.BindEnv("PROVIDER_DELAY_MS")
	_ = viper.BindEnv("LIST_CACHE_TTL_SECONDS")
	_ = viper.BindEnv("LIST_PAGE_SIZE")
	_ = viper.BindEnv("LIST_MAX_PAGE_SIZE")
	_ = viper.BindEnv("TASK_MAX_RETRIES")

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

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.AuthJWTSecret = strings.TrimSpace(config.AuthJWTSecret)

	if config.ProviderDelayMS < 0 {
		log.Printf("level=warn component=config msg=\"negative provider delay configured; coercing to zero\" delay_ms=%d", config.ProviderDelayMS)
		config.ProviderDelayMS = 0
	}
	if config.ListCacheTTLSeconds <= 0 {
		config.ListCacheTTLSeconds = 60
	}
	if config.ListPageSize <= 0 {
		config.ListPageSize = 20
	}
	if config.ListMaxPageSize <= 0 {
		config.ListMaxPageSize = 100
	}
	if config.ListPageSize > config.ListMaxPageSize {
		config.ListPageSize = config.ListMaxPageSize
	}
	if config.TaskMaxRetries <= 0 {
		config.TaskMaxRetries = 5
	}

	return
}
