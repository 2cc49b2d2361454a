package transport

import "context"

// Endpoint is an in-process member of the room, used by the lobby bots.
type Endpoint struct {
	hub    *Hub
	member *member
}

var _ Sender = (*Endpoint)(nil)

// Identity returns the address the endpoint joined with.
func (e *Endpoint) Identity() string {
	return e.member.Identity
}

// Nick returns the display name the endpoint joined with.
func (e *Endpoint) Nick() string {
	return e.member.Nick
}

// Receive returns the endpoint's inbound traffic, presence included.
func (e *Endpoint) Receive() <-chan Envelope {
	return e.member.queue
}

// Done is closed once the endpoint has left the room.
func (e *Endpoint) Done() <-chan struct{} {
	return e.member.done
}

// Send routes env through the room on behalf of this endpoint.
func (e *Endpoint) Send(env Envelope) error {
	select {
	case <-e.member.done:
		return ErrClosed
	default:
	}
	return e.hub.route(e.member, env)
}

// Leave removes the endpoint from the room and announces it to the others.
func (e *Endpoint) Leave() {
	e.hub.unregister(e.member)
}

// Serve feeds every envelope the endpoint receives to handle, one at a time,
// until ctx is cancelled or the endpoint leaves the room.
func (e *Endpoint) Serve(ctx context.Context, handle func(Envelope)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.member.done:
			return ErrClosed
		case env := <-e.member.queue:
			handle(env)
		}
	}
}
