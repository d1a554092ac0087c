// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the worker.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Discord  DiscordConfig
	Twitch   TwitchConfig
	Kick     KickConfig
	Poller   PollerConfig
	Server   ServerConfig
}

// ServerConfig contains the health/metrics HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RedisConfig contains the Redis connection used by the system task queue.
type RedisConfig struct {
	URL string
}

// RabbitMQConfig contains RabbitMQ connection and offline queue configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
	Prefetch   int
}

// DiscordConfig contains the bot credentials.
type DiscordConfig struct {
	Token string
}

// TwitchConfig contains Helix API credentials.
type TwitchConfig struct {
	ClientID     string
	ClientSecret string
}

// KickConfig contains the Kick API endpoint configuration.
type KickConfig struct {
	BaseURL string
}

// PollerConfig contains polling cadence and offline worker sizing.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type PollerConfig struct {
	CheckInterval      time.Duration
	TeamSyncInterval   time.Duration
	UserSyncInterval   time.Duration
	StatsInterval      time.Duration
	RequestTimeout     time.Duration
	OfflineConcurrency int
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate reports missing required credentials. Checked once at startup;
// nothing exits the process over configuration mid-job.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	return nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "stream_announcer")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 5)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Redis (system task queue)
	viper.SetDefault("redis.url", "redis://localhost:6379/0")

	// RabbitMQ (offline queue)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "stream.events")
	viper.SetDefault("rabbitmq.queue", "offline-queue")
	viper.SetDefault("rabbitmq.routingkey", "stream.offline")
	viper.SetDefault("rabbitmq.prefetch", 10)

	// Kick
	viper.SetDefault("kick.baseurl", "https://kick.com/api/v2")

	// Poller
	viper.SetDefault("poller.checkinterval", time.Minute)
	viper.SetDefault("poller.teamsyncinterval", 30*time.Minute)
	viper.SetDefault("poller.usersyncinterval", 6*time.Hour)
	viper.SetDefault("poller.statsinterval", time.Hour)
	viper.SetDefault("poller.requesttimeout", 10*time.Second)
	viper.SetDefault("poller.offlineconcurrency", 10)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
