package reports

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/mauv0809/lobbybot/internal/protocol"
)

// Aggregator collects the reports each player sends at the end of a match
// and releases a match once every player has sent an identical report.
//
// Incomplete matches are kept in a bounded FIFO. When it is full the oldest
// match is dropped: a player that never reports holds a match back forever,
// and the queue must not grow without bound because of it. A dropped match
// is lost.
type Aggregator struct {
	mu       sync.Mutex
	capacity int
	queue    []*pending
	metrics  metrics.Metrics
}

func New(capacity int, m metrics.Metrics) *Aggregator {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Aggregator{
		capacity: capacity,
		queue:    make([]*pending, 0, capacity),
		metrics:  m,
	}
}

// Submit records participant's report and returns every match that became
// complete as a result. Reports that differ in anything but the submitter's
// position belong to different matches.
func (a *Aggregator) Submit(participant string, raw map[string]string) ([]CanonicalReport, error) {
	a.metrics.IncReportsReceived()

	frag, err := protocol.ParseFragment(raw)
	if err != nil {
		a.metrics.IncReportsRejected()
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.find(frag.Key())
	if p == nil {
		p = &pending{
			key:        frag.Key(),
			scalars:    frag.Scalars,
			sequences:  frag.Sequences,
			identities: make([]string, frag.NumPlayers),
		}
		a.push(p)
	}
	a.place(p, participant, frag.Ordinal)

	completed := a.collect()
	a.metrics.SetPendingReports(len(a.queue))
	return completed, nil
}

// Pending returns the number of incomplete matches.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

func (a *Aggregator) find(key string) *pending {
	for _, p := range a.queue {
		if p.key == key {
			return p
		}
	}
	return nil
}

func (a *Aggregator) push(p *pending) {
	if len(a.queue) >= a.capacity {
		evicted := a.queue[0]
		a.queue[0] = nil
		a.queue = a.queue[1:]
		a.metrics.IncReportsEvicted()
		log.Warn("Report queue full, dropping oldest incomplete match",
			"capacity", a.capacity, "reported", evicted.reported(), "players", len(evicted.identities))
	}
	a.queue = append(a.queue, p)
}

// place puts participant in its slot. A slot belongs to whoever filled it
// first and an identity holds at most one slot per match, so a client cannot
// complete a match on behalf of players who never reported.
func (a *Aggregator) place(p *pending, participant string, ordinal int) {
	slot := ordinal - 1
	if slot < 0 || slot >= len(p.identities) {
		log.Warn("Report position out of range", "participant", participant, "position", ordinal, "players", len(p.identities))
		return
	}
	switch current := p.identities[slot]; {
	case current == participant:
		log.Debug("Duplicate report ignored", "participant", participant, "position", ordinal)
	case current != "":
		log.Warn("Report position already taken", "participant", participant, "position", ordinal, "holder", current)
	case p.holds(participant) >= 0:
		log.Warn("Participant already reported another position", "participant", participant, "position", ordinal)
	default:
		p.identities[slot] = participant
	}
}

func (a *Aggregator) collect() []CanonicalReport {
	var completed []CanonicalReport
	kept := a.queue[:0]
	for _, p := range a.queue {
		if p.full() {
			completed = append(completed, p.expand())
			a.metrics.IncReportsCompleted()
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(a.queue); i++ {
		a.queue[i] = nil
	}
	a.queue = kept
	return completed
}

func (p *pending) reported() int {
	n := 0
	for _, id := range p.identities {
		if id != "" {
			n++
		}
	}
	return n
}

// expand zips every per-player sequence with the reporting identities.
func (p *pending) expand() CanonicalReport {
	r := CanonicalReport{
		Players:   append([]string(nil), p.identities...),
		Scalars:   make(map[string]string, len(p.scalars)),
		PerPlayer: make(map[string]map[string]string, len(p.sequences)),
	}
	for k, v := range p.scalars {
		r.Scalars[k] = v
	}
	for stat, values := range p.sequences {
		byPlayer := make(map[string]string, len(p.identities))
		for i, id := range p.identities {
			if i >= len(values) {
				break
			}
			byPlayer[id] = values[i]
		}
		r.PerPlayer[stat] = byPlayer
	}
	return r
}
