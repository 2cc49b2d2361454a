package games

import (
	"errors"
	"time"
)

// State is the lifecycle stage of a hosted game.
type State string

const (
	StateInit    State = "init"
	StateWaiting State = "waiting"
	StateRunning State = "running"
)

var (
	ErrUnknownGame     = errors.New("unknown game")
	ErrInvalidSnapshot = errors.New("invalid game snapshot")
)

// Snapshot is a host's periodic description of its game.
type Snapshot struct {
	Players    []string
	NumPlayers *int
	Attributes map[string]string
}

// Session is one game hosted in the lobby, keyed by its host's identity.
type Session struct {
	Host        string
	Players     []string
	NumPlayers  int
	PlayersInit []string
	NumInit     int
	State       State
	StartTime   time.Time
	Attributes  map[string]string
}

func (s Session) clone() Session {
	s.Players = append([]string(nil), s.Players...)
	s.PlayersInit = append([]string(nil), s.PlayersInit...)
	if s.Attributes != nil {
		attrs := make(map[string]string, len(s.Attributes))
		for k, v := range s.Attributes {
			attrs[k] = v
		}
		s.Attributes = attrs
	}
	return s
}
