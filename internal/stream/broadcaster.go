// Package stream fans newly seen disaster events out to live subscribers.
package stream

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mr1hm/resqlink/internal/models"
)

const subscriberBuffer = 100

type Broadcaster struct {
	subscribers map[uint64]chan *models.DisasterEvent
	nextID      atomic.Uint64
	mu          sync.RWMutex
	closed      bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan *models.DisasterEvent),
	}
}

// Subscribe registers a new subscriber. After Close the returned channel is
// already closed.
func (b *Broadcaster) Subscribe() (uint64, <-chan *models.DisasterEvent) {
	id := b.nextID.Add(1)
	ch := make(chan *models.DisasterEvent, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subscribers[id] = ch
	}
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(e *models.DisasterEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Filter selects which broadcast events a subscriber receives. Zero values
// match everything.
type Filter struct {
	Type        string
	MinSeverity models.Severity
}

func (f Filter) Matches(e *models.DisasterEvent) bool {
	if f.Type != "" && !strings.EqualFold(f.Type, "all") && !strings.EqualFold(f.Type, string(e.Type)) {
		return false
	}
	if f.MinSeverity != "" && severityRank(e.Severity) < severityRank(f.MinSeverity) {
		return false
	}
	return true
}

func severityRank(s models.Severity) int {
	for i, known := range models.Severities {
		if s == known {
			return i
		}
	}
	return -1
}
