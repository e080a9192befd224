package feed

import (
	"testing"
	"time"

	"github.com/beevik/etree"
)

func newTestItem(description string) *etree.Element {
	item := etree.NewElement("item")
	item.CreateElement("description").SetText(description)
	return item
}

func TestRegistry_RegisterIfAbsent(t *testing.T) {
	registry := NewRegistry()
	id := Identity{ID: "19313464", Host: "www.faz.net"}
	now := time.Now()

	if !registry.RegisterIfAbsent(id, "https://x/news", newTestItem("first"), now) {
		t.Fatalf("Expected first registration to succeed")
	}
	if registry.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", registry.Len())
	}

	entry, ok := registry.Lookup(id)
	if !ok {
		t.Fatalf("Expected entry for registered identity")
	}
	if entry.Channel != "https://x/news" {
		t.Errorf("Expected owning channel 'https://x/news', got %q", entry.Channel)
	}
	if entry.InsertedAt != now {
		t.Errorf("Expected insertion time to be recorded")
	}
}

func TestRegistry_FirstWriterWins(t *testing.T) {
	registry := NewRegistry()
	id := Identity{ID: "19313464", Host: "www.faz.net"}

	registry.RegisterIfAbsent(id, "https://x/news", newTestItem("original"), time.Now())

	// A later registration by another channel must not overwrite ownership.
	if registry.RegisterIfAbsent(id, "https://x/headlines", newTestItem("late"), time.Now()) {
		t.Errorf("Expected second registration to be a no-op")
	}

	entry, _ := registry.Lookup(id)
	if entry.Channel != "https://x/news" {
		t.Errorf("Ownership changed: got %q, want 'https://x/news'", entry.Channel)
	}
	if desc := entry.Item.SelectElement("description"); desc == nil || desc.Text() != "original" {
		t.Errorf("Canonical payload changed")
	}
}

func TestRegistry_PayloadIsDeepCopy(t *testing.T) {
	registry := NewRegistry()
	id := Identity{ID: "x", Host: "example.com"}

	item := newTestItem("before")
	registry.RegisterIfAbsent(id, "https://x/news", item, time.Now())

	// Mutating the source element after registration must not leak into the
	// canonical payload.
	item.SelectElement("description").SetText("after")

	entry, _ := registry.Lookup(id)
	if desc := entry.Item.SelectElement("description"); desc == nil || desc.Text() != "before" {
		t.Errorf("Canonical payload aliases the source element")
	}
}

func TestRegistry_Clear(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterIfAbsent(Identity{ID: "a", Host: "h"}, "c", newTestItem("a"), time.Now())
	registry.RegisterIfAbsent(Identity{ID: "b", Host: "h"}, "c", newTestItem("b"), time.Now())

	registry.Clear()

	if registry.Len() != 0 {
		t.Errorf("Expected empty registry after clear, got %d entries", registry.Len())
	}

	// A fresh generation accepts a new owner for a previously seen identity.
	if !registry.RegisterIfAbsent(Identity{ID: "a", Host: "h"}, "other", newTestItem("a"), time.Now()) {
		t.Errorf("Expected registration to succeed after clear")
	}
}
