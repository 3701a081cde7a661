// Package session tracks which skills have already been surfaced within one
// discovery session, so repeat suggestions can be filtered and redundancy
// penalties computed.
package session

import (
	"sync"
	"time"

	"github.com/kamusis/scout-cli/internal/registry"
)

// Entry is one skill already shown in this session, in the order it was
// first surfaced. The name/description are kept so later ranking calls can
// score redundancy against it.
type Entry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Ord         int       `json:"ord"`
	FirstSeen   time.Time `json:"first_seen"`
}

// Store is the per-session presented-skills set. Each session owns exactly
// one Store; it is never shared across sessions. The mutex only guards
// against overlapping calls within the same session.
//
// The set is append-only until an explicit Clear at session end.
type Store struct {
	mu    sync.Mutex
	order []Entry
	index map[string]int
}

// NewStore returns an empty presented-skills set.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Record appends records not already in the set and returns the entries that
// were actually added, in insertion order.
func (s *Store) Record(records []registry.SkillRecord) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []Entry
	for _, r := range records {
		id := r.ID.String()
		if _, ok := s.index[id]; ok {
			continue
		}
		e := Entry{
			ID:          id,
			Name:        r.DisplayName,
			Description: r.Description,
			Ord:         len(s.order),
			FirstSeen:   time.Now().UTC(),
		}
		s.index[id] = len(s.order)
		s.order = append(s.order, e)
		added = append(added, e)
	}
	return added
}

// Contains reports whether the skill identifier has been surfaced before.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// Entries returns a copy of all presented entries in surfacing order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of presented skills.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Clear empties the set. Called only at explicit session termination.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.index = make(map[string]int)
}
