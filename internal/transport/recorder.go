package transport

import "sync"

// Recorder is a Sender for tests. It records every envelope and can be told
// to fail sends to given addresses.
type Recorder struct {
	mu   sync.Mutex
	Sent []Envelope
	// FailFor makes Send return ErrNotConnected for these addresses.
	FailFor map[string]bool
}

var _ Sender = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{FailFor: make(map[string]bool)}
}

func (r *Recorder) Send(env Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailFor[env.To] {
		return ErrNotConnected
	}
	r.Sent = append(r.Sent, env)
	return nil
}

// To returns the envelopes addressed to identity.
func (r *Recorder) To(identity string) []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Envelope
	for _, env := range r.Sent {
		if env.To == identity {
			out = append(out, env)
		}
	}
	return out
}

// Reset clears all recorded envelopes.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = nil
}
