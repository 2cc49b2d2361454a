package config

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment. It exits
// when a required variable is missing or malformed.
func FromEnv() Config {
	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}
	optional := func(key, fallback string) string {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			return value
		}
		return fallback
	}

	enabled, err := strconv.ParseBool(optional("RATINGS_ENABLED", "true"))
	if err != nil {
		log.Fatalf("Error: RATINGS_ENABLED must be a boolean: %v", err)
	}
	capacity, err := strconv.Atoi(optional("REPORT_QUEUE_CAPACITY", "100"))
	if err != nil || capacity <= 0 {
		log.Fatalf("Error: REPORT_QUEUE_CAPACITY must be a positive integer, got %q", os.Getenv("REPORT_QUEUE_CAPACITY"))
	}

	cfg := Config{
		DBName: getEnv("DB_NAME"),
		Port:   getEnv("PORT"),
		Domain: getEnv("LOBBY_DOMAIN"),
		Log: LogConfig{
			Level:  optional("LOG_LEVEL", "info"),
			Format: optional("LOG_FORMAT", "json"),
		},
		Gateway: BotConfig{
			Nick: optional("GATEWAY_NICK", "WFGbot"),
		},
		Ratings: RatingsConfig{
			Nick:          optional("RATINGS_NICK", "Ratings"),
			Enabled:       enabled,
			QueueCapacity: capacity,
		},
		Turso: TursoConfig{
			PrimaryURL: os.Getenv("TURSO_PRIMARY_URL"),
			AuthToken:  os.Getenv("TURSO_AUTH_TOKEN"),
		},
		PubSub: PubSubConfig{
			ProjectID: os.Getenv("GCP_PROJECT"),
			TopicID:   os.Getenv("PUBSUB_TOPIC"),
		},
		Slack: SlackConfig{
			Token:         os.Getenv("SLACK_BOT_TOKEN"),
			ChannelID:     os.Getenv("SLACK_CHANNEL_ID"),
			SigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		},
	}
	return cfg
}
