package gateway

import "errors"

// MentionReply is posted when someone mentions the gateway in the room.
const MentionReply = "I am the administrative bot in this lobby and cannot participate in any games."

// Reasons a relay is dropped, as reported to metrics.
const (
	dropAuthorityOffline = "authority_offline"
	dropUnknownTarget    = "unknown_target"
	dropInvalid          = "invalid"
)

var (
	ErrUnknownTarget        = errors.New("relay target not in the room")
	ErrAuthorityUnavailable = errors.New("rating authority unavailable")
)

// Config identifies the gateway and the rating authority in the room. An
// empty Authority disables every relay that needs it.
type Config struct {
	Identity  string
	Nick      string
	Authority string
}
