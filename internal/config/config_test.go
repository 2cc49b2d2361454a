package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DB_NAME", "lobby.db")
	t.Setenv("PORT", "8080")
	t.Setenv("LOBBY_DOMAIN", "lobby.test")

	cfg := FromEnv()

	assert.Equal(t, "lobby.db", cfg.DBName)
	assert.Equal(t, "WFGbot", cfg.Gateway.Nick)
	assert.Equal(t, "Ratings", cfg.Ratings.Nick)
	assert.True(t, cfg.Ratings.Enabled)
	assert.Equal(t, 100, cfg.Ratings.QueueCapacity)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "WFGbot@lobby.test", cfg.Identity(cfg.Gateway.Nick))
	assert.False(t, cfg.PubSubEnabled())
	assert.False(t, cfg.SlackEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_NAME", "lobby.db")
	t.Setenv("PORT", "8080")
	t.Setenv("LOBBY_DOMAIN", "lobby.test")
	t.Setenv("RATINGS_ENABLED", "false")
	t.Setenv("REPORT_QUEUE_CAPACITY", "8")
	t.Setenv("RATINGS_NICK", "EcheLOn")
	t.Setenv("GCP_PROJECT", "proj")
	t.Setenv("PUBSUB_TOPIC", "rated")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb")
	t.Setenv("SLACK_CHANNEL_ID", "C1")

	cfg := FromEnv()

	assert.False(t, cfg.Ratings.Enabled)
	assert.Equal(t, 8, cfg.Ratings.QueueCapacity)
	assert.Equal(t, "EcheLOn@lobby.test", cfg.Identity(cfg.Ratings.Nick))
	assert.True(t, cfg.PubSubEnabled())
	assert.True(t, cfg.SlackEnabled())
}
