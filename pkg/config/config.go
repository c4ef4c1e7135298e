// Package config provides configuration management for the ledger bot.
// It loads environment variables (and an optional .env file) and makes them
// available throughout the application.
package config

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all configuration values
type Config struct {
	// Discord
	BotToken              string
	DevGuildID            string
	ModeratorRoles        []string
	WarningLogChannelID   string
	BanRequestChannelID   string
	BanCompletedChannelID string

	// Storage
	StoreBackend   string
	WarningsDBPath string
	LicensesDBPath string
	LoadMode       string
	MongoDBURL     string
	DBName         string

	// MQTT
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string
	MQTTTopic    string

	// Web Server
	Port            string
	WebAllowedHosts string
	WebAPIToken     string

	// Environment
	Environment string

	// Logging
	LogsDir      string
	ErrorWebhook string
	LogsWebhook  string
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

var (
	cfg     *Config
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
func resetForTesting() {
	cfg = nil
	cfgOnce = sync.Once{}
}

func loadConfig() {
	// Missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	cfg = &Config{
		BotToken:              getEnv("DISCORD_TOKEN", getEnv("BOT_TOKEN", "")),
		DevGuildID:            getEnv("DEV_GUILD_ID", ""),
		ModeratorRoles:        splitList(getEnv("MODERATOR_ROLES", "")),
		WarningLogChannelID:   getEnv("WARNING_LOG_CHANNEL_ID", ""),
		BanRequestChannelID:   getEnv("BAN_REQUEST_CHANNEL_ID", ""),
		BanCompletedChannelID: getEnv("BAN_COMPLETED_CHANNEL_ID", ""),

		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", "file")),
		WarningsDBPath: getEnv("WARNINGS_DB_PATH", "warnings.json"),
		LicensesDBPath: getEnv("LICENSES_DB_PATH", "licenses.json"),
		LoadMode:       strings.ToLower(getEnv("LOAD_MODE", "failopen")),
		MongoDBURL:     getEnv("mongodbUrl", "mongodb://localhost:27017"),
		DBName:         getEnv("dbName", "PancyLedger"),

		MQTTHost:     getEnv("MQTT_Host", ""),
		MQTTPort:     getEnv("MQTT_Port", "1883"),
		MQTTUser:     getEnv("MQTT_User", ""),
		MQTTPassword: getEnv("MQTT_Password", ""),
		MQTTTopic:    getEnv("MQTT_Topic", "pancyledger"),

		Port:            getEnv("PORT", "3000"),
		WebAllowedHosts: getEnv("WEB_ALLOWED_HOSTS", ""),
		WebAPIToken:     getEnv("WEB_API_TOKEN", ""),

		Environment: getEnv("enviroment", "dev"),

		LogsDir:      getEnv("LOGS_DIR", "logs"),
		ErrorWebhook: getEnv("errorWebhook", ""),
		LogsWebhook:  getEnv("logsWebhook", ""),
	}
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, nil
}

// Get returns the current configuration
func Get() *Config {
	cfgOnce.Do(loadConfig)
	return cfg
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList splits a comma separated list, dropping blanks
func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// MQTTEnabled reports whether an MQTT broker is configured
func (c *Config) MQTTEnabled() bool {
	return c.MQTTHost != ""
}

// IsModeratorRole reports whether roleID is listed in MODERATOR_ROLES
func (c *Config) IsModeratorRole(roleID string) bool {
	for _, r := range c.ModeratorRoles {
		if r == roleID {
			return true
		}
	}
	return false
}
