package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/mauv0809/lobbybot/internal/transport"
)

// Decode validates env and returns the concrete message it carries. Anything
// that doesn't match a known (family, type) shape is rejected here so the
// lobby components only ever see typed messages.
func Decode(env transport.Envelope) (Message, error) {
	switch Family(env.Family) {
	case FamilyGameList:
		switch env.Type {
		case transport.TypeSet:
			var m GameCommand
			if err := unmarshal(env, &m); err != nil {
				return nil, err
			}
			if err := m.validate(); err != nil {
				return nil, err
			}
			return m, nil
		case transport.TypeResult:
			var m GameList
			if err := unmarshal(env, &m); err != nil {
				return nil, err
			}
			return m, nil
		}
	case FamilyBoardList:
		switch env.Type {
		case transport.TypeGet:
			var m BoardRequest
			if err := unmarshal(env, &m); err != nil {
				return nil, err
			}
			if m.Command != CommandGetLeaderboard && m.Command != CommandGetRatingList {
				return nil, fmt.Errorf("board command %q: %w", m.Command, ErrInvalidMessage)
			}
			return m, nil
		case transport.TypeResult:
			var m BoardList
			if err := unmarshal(env, &m); err != nil {
				return nil, err
			}
			if m.Command != CommandBoardList && m.Command != CommandRatingList {
				return nil, fmt.Errorf("board result %q: %w", m.Command, ErrInvalidMessage)
			}
			return m, nil
		}
	case FamilyGameReport:
		if env.Type == transport.TypeSet {
			var m GameReport
			if err := unmarshal(env, &m); err != nil {
				return nil, err
			}
			if len(m.Game) == 0 {
				return nil, fmt.Errorf("empty game report: %w", ErrInvalidMessage)
			}
			return m, nil
		}
	case FamilyProfile:
		switch env.Type {
		case transport.TypeGet:
			var m ProfileRequest
			if err := unmarshal(env, &m); err != nil {
				return nil, err
			}
			if m.Command == "" {
				return nil, fmt.Errorf("profile request without player: %w", ErrInvalidMessage)
			}
			return m, nil
		case transport.TypeResult:
			var m Profile
			if err := unmarshal(env, &m); err != nil {
				return nil, err
			}
			return m, nil
		}
	case FamilyPlayer:
		if env.Type == transport.TypeSet {
			var m PlayerOnline
			if err := unmarshal(env, &m); err != nil {
				return nil, err
			}
			if m.Online == "" {
				return nil, fmt.Errorf("player stanza without identity: %w", ErrInvalidMessage)
			}
			return m, nil
		}
	case FamilyChat:
		if env.Type == transport.TypeChat {
			var m Chat
			if err := unmarshal(env, &m); err != nil {
				return nil, err
			}
			return m, nil
		}
	default:
		return nil, fmt.Errorf("%q: %w", env.Family, ErrUnknownFamily)
	}
	return nil, fmt.Errorf("%s/%s: %w", env.Family, env.Type, ErrUnsupportedType)
}

// Encode wraps msg in an envelope addressed to to.
func Encode(to string, typ transport.StanzaType, msg Message) (transport.Envelope, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return transport.Envelope{}, fmt.Errorf("encode %s: %w", msg.Family(), err)
	}
	return transport.Envelope{
		To:      to,
		Type:    typ,
		Family:  string(msg.Family()),
		Payload: payload,
	}, nil
}

func unmarshal(env transport.Envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%s: empty payload: %w", env.Family, ErrInvalidMessage)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%s: %v: %w", env.Family, err, ErrInvalidMessage)
	}
	return nil
}

func (c GameCommand) validate() error {
	switch c.Command {
	case CommandUnregister:
		return nil
	case CommandRegister, CommandChangeState:
		if c.Game == nil {
			return fmt.Errorf("%s without game: %w", c.Command, ErrInvalidMessage)
		}
		return nil
	}
	return fmt.Errorf("game command %q: %w", c.Command, ErrInvalidMessage)
}
