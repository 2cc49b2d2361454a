package protocol

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// FieldPlayerID is the submitter's 1-indexed position in the match.
	FieldPlayerID = "playerID"
	// FieldPlayerStates holds one state per player; its length fixes the
	// number of players in the match.
	FieldPlayerStates = "playerStates"

	separator = ","
)

var ErrInvalidFragment = errors.New("invalid report fragment")

// Fragment is one participant's report of a finished match, decoded from the
// flat wire map. Per-player fields are split into sequences; the submitter's
// own position is held apart so fragments from different players of the same
// match compare equal.
type Fragment struct {
	Ordinal    int
	NumPlayers int
	Scalars    map[string]string
	Sequences  map[string][]string

	key string
}

// ParseFragment decodes a raw report. The submitter field and the player
// states are required; every other field is kept as-is.
func ParseFragment(raw map[string]string) (Fragment, error) {
	idField, ok := raw[FieldPlayerID]
	if !ok {
		return Fragment{}, fmt.Errorf("missing %s: %w", FieldPlayerID, ErrInvalidFragment)
	}
	ordinal, err := strconv.Atoi(strings.TrimSpace(idField))
	if err != nil {
		return Fragment{}, fmt.Errorf("%s %q: %w", FieldPlayerID, idField, ErrInvalidFragment)
	}

	states, ok := raw[FieldPlayerStates]
	if !ok {
		return Fragment{}, fmt.Errorf("missing %s: %w", FieldPlayerStates, ErrInvalidFragment)
	}
	numPlayers := 0
	for _, s := range splitSequence(states) {
		if s != "" {
			numPlayers++
		}
	}
	if numPlayers == 0 {
		return Fragment{}, fmt.Errorf("%s %q has no players: %w", FieldPlayerStates, states, ErrInvalidFragment)
	}

	f := Fragment{
		Ordinal:    ordinal,
		NumPlayers: numPlayers,
		Scalars:    make(map[string]string),
		Sequences:  make(map[string][]string),
	}
	canonical := make(map[string]string, len(raw))
	for k, v := range raw {
		if k == FieldPlayerID {
			continue
		}
		canonical[k] = v
		if k == FieldPlayerStates || strings.Contains(v, separator) {
			f.Sequences[k] = splitSequence(v)
		} else {
			f.Scalars[k] = v
		}
	}
	f.key = canonicalKey(canonical)
	return f, nil
}

// Key identifies the match content independently of who submitted it. Two
// fragments have the same key only if every field other than the submitter
// field is byte-for-byte identical.
func (f Fragment) Key() string {
	return f.key
}

// splitSequence splits a comma-joined value. Clients terminate every
// sequence with a separator, so the trailing empty element is not a value.
func splitSequence(v string) []string {
	parts := strings.Split(v, separator)
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func canonicalKey(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := fields[k]
		fmt.Fprintf(&b, "%d:%s%d:%s", len(k), k, len(v), v)
	}
	return b.String()
}
