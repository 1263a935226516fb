// Package history keeps recent generation and review summaries in memory.
// Entries expire after a TTL and only the newest are kept; nothing survives a
// restart.
package history

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	c "github.com/patrickmn/go-cache"
)

// Entry summarises one finished piece of work
type Entry struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Summary   string    `json:"summary,omitempty"`
	Targets   []string  `json:"targets,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	seq uint64
}

// Store is a bounded, expiring list of entries. It is safe for concurrent use.
type Store struct {
	cache *c.Cache
	max   int

	mu  sync.Mutex
	seq uint64
	now func() time.Time
}

// New creates a store whose entries live for ttl, keeping at most maxEntries
func New(ttl time.Duration, maxEntries int) *Store {
	return &Store{
		cache: c.New(ttl, ttl/2+time.Minute),
		max:   maxEntries,
		now:   time.Now,
	}
}

// Add stores e, assigning an ID and timestamp when missing, and evicts the
// oldest entries beyond the bound
func (s *Store) Add(e Entry) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.seq++
	e.seq = s.seq
	s.cache.SetDefault(e.ID, e)

	if s.max > 0 {
		entries := s.sorted()
		for _, old := range entries[min(len(entries), s.max):] {
			s.cache.Delete(old.ID)
		}
	}
	return e
}

// Get returns one entry
func (s *Store) Get(id string) (Entry, bool) {
	v, found := s.cache.Get(id)
	if !found {
		return Entry{}, false
	}
	return v.(Entry), true
}

// List returns entries newest first. An empty kind lists every kind.
func (s *Store) List(kind string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for _, e := range s.sorted() {
		if kind == "" || e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Len reports how many unexpired entries are held
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// sorted returns unexpired entries newest first. Callers hold s.mu.
func (s *Store) sorted() []Entry {
	items := s.cache.Items()
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.Object.(Entry))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq > entries[j].seq
	})
	return entries
}
