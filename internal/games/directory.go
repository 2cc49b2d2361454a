package games

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Directory tracks every game currently hosted in the lobby. It is safe for
// concurrent use; the gateway mutates it while the ops routes read it.
type Directory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewDirectory() *Directory {
	return NewDirectoryWithClock(time.Now)
}

// NewDirectoryWithClock is used by tests to control start times.
func NewDirectoryWithClock(now func() time.Time) *Directory {
	return &Directory{
		sessions: make(map[string]*Session),
		now:      now,
	}
}

// Add registers host's game in state init, replacing any game the host had.
func (d *Directory) Add(host string, snap Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}
	s := Session{
		Host:        host,
		Players:     snap.Players,
		NumPlayers:  *snap.NumPlayers,
		PlayersInit: snap.Players,
		NumInit:     *snap.NumPlayers,
		State:       StateInit,
		Attributes:  snap.Attributes,
	}.clone()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[host] = &s
	log.Debug("Game registered", "host", host, "nbp", s.NumInit)
	return nil
}

// Remove deletes host's game.
func (d *Directory) Remove(host string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[host]; !ok {
		return fmt.Errorf("remove %s: %w", host, ErrUnknownGame)
	}
	delete(d.sessions, host)
	log.Debug("Game unregistered", "host", host)
	return nil
}

// ChangeState updates the live roster of host's game. Fewer players than at
// registration means the game stalled; otherwise it is running. The start
// time is recorded on the first transition to running and never changes.
func (d *Directory) ChangeState(host string, snap Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[host]
	if !ok {
		return fmt.Errorf("change state of %s: %w", host, ErrUnknownGame)
	}

	prev := s.State
	if *snap.NumPlayers < s.NumInit {
		s.State = StateWaiting
	} else {
		s.State = StateRunning
		if s.StartTime.IsZero() {
			s.StartTime = d.now()
		}
	}
	s.NumPlayers = *snap.NumPlayers
	s.Players = append([]string(nil), snap.Players...)
	log.Debug("Game state changed", "host", host, "from", prev, "to", s.State)
	return nil
}

// Get returns a copy of host's game.
func (d *Directory) Get(host string) (Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[host]
	if !ok {
		return Session{}, false
	}
	return s.clone(), true
}

// GetAll returns a copy of every game, ordered by host.
func (d *Directory) GetAll() []Session {
	d.mu.RLock()
	all := make([]Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		all = append(all, s.clone())
	}
	d.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Host < all[j].Host })
	return all
}

// Len returns the number of hosted games.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

func validate(snap Snapshot) error {
	if snap.Players == nil {
		return fmt.Errorf("missing players: %w", ErrInvalidSnapshot)
	}
	if snap.NumPlayers == nil {
		return fmt.Errorf("missing nbp: %w", ErrInvalidSnapshot)
	}
	if *snap.NumPlayers < 0 {
		return fmt.Errorf("negative nbp %d: %w", *snap.NumPlayers, ErrInvalidSnapshot)
	}
	return nil
}
