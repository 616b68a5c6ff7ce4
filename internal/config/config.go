/**
 * @description
 * This file handles the configuration management for the payout-account-service.
 * It uses the Viper library to read settings from environment variables or a .env file.
 *
 * @dependencies
 * - github.com/spf13/viper: For configuration management.
 */
package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	BankDirectoryAPIKey     string `mapstructure:"BANK_DIRECTORY_API_KEY"`
	BankDirectoryAPIBaseURL string `mapstructure:"BANK_DIRECTORY_API_BASE_URL"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
	ServerPort              string `mapstructure:"SERVER_PORT"`
	CodeTTLMinutes          int    `mapstructure:"VERIFICATION_CODE_TTL_MINUTES"`
	CountryCode             string `mapstructure:"BANK_DIRECTORY_COUNTRY_CODE"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8084")
	viper.SetDefault("VERIFICATION_CODE_TTL_MINUTES", 15)
	viper.SetDefault("BANK_DIRECTORY_COUNTRY_CODE", "NG")

	// Bind envs explicitly so containers pick them up reliably
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("BANK_DIRECTORY_API_KEY")
	_ = viper.BindEnv("BANK_DIRECTORY_API_BASE_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("VERIFICATION_CODE_TTL_MINUTES")
	_ = viper.BindEnv("BANK_DIRECTORY_COUNTRY_CODE")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Error reading config file: %s", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &config, nil
}
