package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	topic    *pubsub.Topic
	teardown func()
}

// EventType represents the type of event sent via pubsub. It travels as the
// "event" attribute of each message.
type EventType string

const (
	EventMatchRated    EventType = "match-rated"
	EventMatchRecorded EventType = "match-recorded"
)

// RatedMatchEvent is published after every rated match.
type RatedMatchEvent struct {
	RecordID string         `msgpack:"record_id"`
	MatchID  string         `msgpack:"match_id"`
	MapName  string         `msgpack:"map_name"`
	Winner   string         `msgpack:"winner"`
	Ratings  []RatingChange `msgpack:"ratings"`
	At       int64          `msgpack:"at"`
}

// RatingChange is one player's rating movement.
type RatingChange struct {
	Identity string `msgpack:"identity"`
	Before   int    `msgpack:"before"`
	After    int    `msgpack:"after"`
}

// RecordedMatchEvent is published for every stored match, rated or not.
type RecordedMatchEvent struct {
	RecordID string   `msgpack:"record_id"`
	MatchID  string   `msgpack:"match_id"`
	Players  []string `msgpack:"players"`
	Rated    bool     `msgpack:"rated"`
	At       int64    `msgpack:"at"`
}
