package feed

import (
	"sync"
	"time"

	"github.com/beevik/etree"
)

// Entry records the first sighting of an identity within the current
// generation: the link of the channel that published it first and a deep
// copy of the item subtree as it appeared there. Entries are immutable once
// created; only the registry creates and removes them.
type Entry struct {
	Channel    string
	Item       *etree.Element
	InsertedAt time.Time
}

// Registry maps article identities to their owning channel. Ownership is
// strictly first-writer-wins for the lifetime of a generation, so the order
// in which feeds are processed decides which channel keeps a shared article.
//
// A single Registry handle is shared between the processing and reset call
// sites. At most one rewriting pass or one Clear may be in flight at a time;
// the internal mutex protects the map, but it does not make interleaved
// passes meaningful, so callers must serialize passes themselves (the task
// scheduler runs them on a single worker).
type Registry struct {
	mu      sync.Mutex
	entries map[Identity]Entry
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Identity]Entry),
	}
}

func (r *Registry) Lookup(id Identity) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	return entry, ok
}

// RegisterIfAbsent records channel as the owner of id, capturing a deep copy
// of item as the canonical payload. A no-op if an entry already exists.
// Reports whether a new entry was created.
func (r *Registry) RegisterIfAbsent(id Identity, channel string, item *etree.Element, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; ok {
		return false
	}

	r.entries[id] = Entry{
		Channel:    channel,
		Item:       item.Copy(),
		InsertedAt: now,
	}
	return true
}

// Clear drops all entries, starting a new generation. Invoked by the
// scheduler on a daily cadence to cap memory growth; must never run while a
// rewriting pass is in flight.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[Identity]Entry)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}
