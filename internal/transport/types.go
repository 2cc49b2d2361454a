package transport

import (
	"encoding/json"
	"errors"
)

// StanzaType classifies an envelope the way the room routes it.
type StanzaType string

const (
	TypeGet      StanzaType = "get"
	TypeSet      StanzaType = "set"
	TypeResult   StanzaType = "result"
	TypeChat     StanzaType = "chat"
	TypePresence StanzaType = "presence"
)

var (
	// ErrNotConnected is returned when the addressee is not in the room.
	ErrNotConnected = errors.New("recipient not connected")
	// ErrIdentityInUse is returned when an identity joins twice.
	ErrIdentityInUse = errors.New("identity already connected")
	// ErrBufferFull is returned when a member cannot keep up with its traffic.
	ErrBufferFull = errors.New("member send buffer full")
	// ErrClosed is returned when sending through an endpoint that left the room.
	ErrClosed = errors.New("endpoint closed")
)

// Envelope is the unit of traffic in the room. From is always stamped by the
// hub from the sending member's identity.
type Envelope struct {
	ID      string          `json:"id,omitempty"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
	Type    StanzaType      `json:"type"`
	Family  string          `json:"family,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Presence is the payload of a presence envelope.
type Presence struct {
	Nick   string `json:"nick"`
	Online bool   `json:"online"`
}

// Member describes one occupant of the room.
type Member struct {
	Identity string `json:"identity"`
	Nick     string `json:"nick"`
}

// Sender delivers envelopes into the room. Delivery is fire-and-forget: a
// returned error means the envelope was dropped.
type Sender interface {
	Send(env Envelope) error
}

// ParsePresence extracts the presence payload of a presence envelope.
func ParsePresence(env Envelope) (Presence, bool) {
	if env.Type != TypePresence {
		return Presence{}, false
	}
	var p Presence
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return Presence{}, false
	}
	return p, true
}

func presenceEnvelope(m Member, online bool) Envelope {
	payload, _ := json.Marshal(Presence{Nick: m.Nick, Online: online})
	return Envelope{From: m.Identity, Type: TypePresence, Payload: payload}
}
