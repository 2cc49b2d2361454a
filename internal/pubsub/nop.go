package pubsub

import (
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// nop is used when no Pub/Sub project is configured. It still encodes every
// event so serialisation problems show up in development.
type nop struct{}

// NewNop returns a client that logs events instead of publishing them.
func NewNop() PubSubClient {
	return nop{}
}

func (nop) SendMessage(event EventType, data any) error {
	b, err := msgpack.Marshal(data)
	if err != nil {
		return err
	}
	log.Debug("Pub/Sub disabled, dropping event", "event", event, "bytes", len(b))
	return nil
}

func (nop) Close() {}
