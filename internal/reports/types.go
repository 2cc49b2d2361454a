package reports

import "errors"

// DefaultCapacity is the number of incomplete reports kept before the oldest
// is dropped.
const DefaultCapacity = 100

// ErrValidation is returned for a fragment that cannot be placed in any match.
var ErrValidation = errors.New("report validation failed")

// CanonicalReport is a match report confirmed by every player in it.
type CanonicalReport struct {
	// Players holds identities in ordinal order.
	Players []string
	// Scalars are match-level fields.
	Scalars map[string]string
	// PerPlayer maps each per-player statistic to the value for each identity.
	PerPlayer map[string]map[string]string
}

// Stat returns the value of a per-player statistic for identity.
func (r CanonicalReport) Stat(stat, identity string) (string, bool) {
	values, ok := r.PerPlayer[stat]
	if !ok {
		return "", false
	}
	v, ok := values[identity]
	return v, ok
}

// pending is one match waiting for the rest of its players to report.
type pending struct {
	key        string
	scalars    map[string]string
	sequences  map[string][]string
	identities []string
}

func (p *pending) full() bool {
	for _, id := range p.identities {
		if id == "" {
			return false
		}
	}
	return true
}

func (p *pending) holds(identity string) int {
	for i, id := range p.identities {
		if id == identity {
			return i
		}
	}
	return -1
}
