// Package cache holds the per-session, in-memory view of a user's
// projects: a write-through cache over the project repository with
// discard-and-replace reconciliation and a typed event stream for
// observers.
package cache

import (
	"sync"

	"github.com/albertomtferreira/devflow/internal/models"
)

// EventType identifies what changed in the session cache.
type EventType string

const (
	EventProjectCreated EventType = "project.created"
	EventProjectUpdated EventType = "project.updated"
	EventProjectDeleted EventType = "project.deleted"
	// EventStatusChanged is published for the optimistic local status
	// patch; the authoritative value follows with a refresh event.
	EventStatusChanged EventType = "project.status_changed"
	// EventRefreshed is published after a wholesale list replacement.
	EventRefreshed EventType = "projects.refreshed"
)

// Event is one cache change notification. Project is a clone and may
// be nil for deletions and refreshes.
type Event struct {
	Type      EventType
	ProjectID string
	StatusID  string
	Project   *models.Project
}

// Observer receives cache events. Send is called synchronously on the
// mutating goroutine; observers that need to block should hand off to
// their own channel.
type Observer interface {
	Send(e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) Send(e Event) { f(e) }

// Bus is an explicit observer registry: fan-out on publish, no topics.
// It replaces the ambient broadcast channel the dashboard used, so the
// dependency between cache and observers is visible and testable.
type Bus struct {
	mu        sync.RWMutex
	observers map[Observer]struct{}
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{observers: make(map[Observer]struct{})}
}

// Subscribe registers an observer for all subsequent events.
func (b *Bus) Subscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers[o] = struct{}{}
}

// Unsubscribe removes an observer.
func (b *Bus) Unsubscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.observers, o)
}

// Publish delivers the event to every registered observer.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for o := range b.observers {
		o.Send(e)
	}
}
