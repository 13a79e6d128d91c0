package config

import (
	"os"
	"strconv"
)

type Config struct {
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	ListenAddr string
	OutputRoot string

	DiscordToken     string
	DiscordChannelID string
}

// LoadConfig loads service config from environment variables with sensible defaults.
// Supported env vars: DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME,
// LISTEN_ADDR, OUTPUT_ROOT, DISCORD_TOKEN, DISCORD_CHANNEL_ID
func LoadConfig() *Config {
	host := getenvDefault("DB_HOST", "localhost")
	portStr := getenvDefault("DB_PORT", "5432")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 5432
	}

	return &Config{
		DBHost:           host,
		DBPort:           port,
		DBUser:           getenvDefault("DB_USER", "webscout"),
		DBPassword:       getenvDefault("DB_PASSWORD", "webscout"),
		DBName:           getenvDefault("DB_NAME", "webscout"),
		ListenAddr:       getenvDefault("LISTEN_ADDR", ":8080"),
		OutputRoot:       getenvDefault("OUTPUT_ROOT", "./scans"),
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
