package transport

import (
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const defaultBufferSize = 256

// member is a room occupant. Envelopes wait in an unbounded mailbox and a
// pump hands them to queue one at a time, so delivery order is the order
// they were enqueued. Ordinary traffic is capped at limit pending
// envelopes; presence is never dropped while the member is in the room.
type member struct {
	Member
	session string
	queue   chan Envelope
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	pending []Envelope
	traffic int
	limit   int
	wake    chan struct{}
}

func newMember(identity, nick string, limit int) *member {
	m := &member{
		Member:  Member{Identity: identity, Nick: nick},
		session: uuid.NewString(),
		queue:   make(chan Envelope),
		done:    make(chan struct{}),
		limit:   limit,
		wake:    make(chan struct{}, 1),
	}
	go m.pump()
	return m
}

func (m *member) enqueue(env Envelope) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}

	m.mu.Lock()
	if env.Type != TypePresence {
		if m.traffic >= m.limit {
			m.mu.Unlock()
			return ErrBufferFull
		}
		m.traffic++
	}
	m.pending = append(m.pending, env)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return nil
}

func (m *member) next() (Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return Envelope{}, false
	}
	env := m.pending[0]
	m.pending[0] = Envelope{}
	m.pending = m.pending[1:]
	if env.Type != TypePresence {
		m.traffic--
	}
	return env, true
}

func (m *member) pump() {
	for {
		env, ok := m.next()
		if !ok {
			select {
			case <-m.wake:
				continue
			case <-m.done:
				return
			}
		}
		select {
		case m.queue <- env:
		case <-m.done:
			return
		}
	}
}

func (m *member) close() {
	m.once.Do(func() { close(m.done) })
}

// Hub is a single presence-based chat room. Members join with a stable
// identity and a display nick, receive presence for everyone else, and
// exchange addressed envelopes or room-wide chat.
type Hub struct {
	mu      sync.RWMutex
	members map[string]*member
	buffer  int
}

// NewHub creates an empty room.
func NewHub() *Hub {
	return NewHubWithBuffer(defaultBufferSize)
}

// NewHubWithBuffer creates an empty room in which each member may have at
// most size undelivered messages besides presence.
func NewHubWithBuffer(size int) *Hub {
	return &Hub{
		members: make(map[string]*member),
		buffer:  size,
	}
}

// Join adds an in-process member to the room.
func (h *Hub) Join(identity, nick string) (*Endpoint, error) {
	m, err := h.register(identity, nick)
	if err != nil {
		return nil, err
	}
	return &Endpoint{hub: h, member: m}, nil
}

// Members returns the current occupants ordered by identity.
func (h *Hub) Members() []Member {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Member, 0, len(h.members))
	for _, m := range h.members {
		out = append(out, m.Member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

// Online reports whether identity is currently in the room.
func (h *Hub) Online(identity string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.members[identity]
	return ok
}

func (h *Hub) register(identity, nick string) (*member, error) {
	if identity == "" || nick == "" {
		return nil, fmt.Errorf("identity and nick are required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.members[identity]; ok {
		return nil, fmt.Errorf("%s: %w", identity, ErrIdentityInUse)
	}
	m := newMember(identity, nick, h.buffer)

	// The newcomer learns about everyone already present, then itself.
	for _, other := range h.members {
		if err := m.enqueue(presenceEnvelope(other.Member, true)); err != nil {
			log.Warn("Dropped presence for newcomer", "to", identity, "about", other.Identity, "error", err)
		}
	}
	h.members[identity] = m
	joined := presenceEnvelope(m.Member, true)
	for _, other := range h.members {
		if err := other.enqueue(joined); err != nil {
			log.Warn("Dropped join presence", "to", other.Identity, "about", identity, "error", err)
		}
	}
	log.Info("Member joined room", "identity", identity, "nick", nick, "session", m.session)
	return m, nil
}

func (h *Hub) unregister(m *member) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.members[m.Identity]
	if !ok || current != m {
		return
	}
	delete(h.members, m.Identity)
	m.close()

	left := presenceEnvelope(m.Member, false)
	for _, other := range h.members {
		if err := other.enqueue(left); err != nil {
			log.Warn("Dropped leave presence", "to", other.Identity, "about", m.Identity, "error", err)
		}
	}
	log.Info("Member left room", "identity", m.Identity, "nick", m.Nick, "session", m.session)
}

// route delivers an envelope sent by from. Chat without an addressee goes to
// every other member; everything else must name a present recipient.
func (h *Hub) route(from *member, env Envelope) error {
	env.From = from.Identity
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.Type == TypePresence {
		return fmt.Errorf("members may not send presence")
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if env.To == "" {
		if env.Type != TypeChat {
			return fmt.Errorf("%s envelope without recipient: %w", env.Type, ErrNotConnected)
		}
		for _, other := range h.members {
			if other == from {
				continue
			}
			if err := other.enqueue(env); err != nil {
				log.Warn("Dropped room message", "to", other.Identity, "from", from.Identity, "error", err)
			}
		}
		return nil
	}

	to, ok := h.members[env.To]
	if !ok {
		return fmt.Errorf("%s: %w", env.To, ErrNotConnected)
	}
	if err := to.enqueue(env); err != nil {
		return fmt.Errorf("%s: %w", env.To, err)
	}
	return nil
}
