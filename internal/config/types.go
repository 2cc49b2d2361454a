package config

// Config holds all configuration for the application.
type Config struct {
	DBName  string
	Port    string
	Domain  string
	Log     LogConfig
	Gateway BotConfig
	Ratings RatingsConfig
	Turso   TursoConfig
	PubSub  PubSubConfig
	Slack   SlackConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type BotConfig struct {
	Nick string
}

type RatingsConfig struct {
	Nick          string
	Enabled       bool
	QueueCapacity int
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

type PubSubConfig struct {
	ProjectID string
	TopicID   string
}

type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}

// Identity returns the room identity for a bot nick.
func (c Config) Identity(nick string) string {
	return nick + "@" + c.Domain
}

// PubSubEnabled reports whether rated-match events are published.
func (c Config) PubSubEnabled() bool {
	return c.PubSub.ProjectID != "" && c.PubSub.TopicID != ""
}

// SlackEnabled reports whether rated matches are announced on Slack.
func (c Config) SlackEnabled() bool {
	return c.Slack.Token != "" && c.Slack.ChannelID != ""
}
