package pubsub

// PubSubClient publishes lobby events for downstream consumers.
type PubSubClient interface {
	SendMessage(event EventType, data any) error
	Close()
}
