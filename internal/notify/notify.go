// Package notify carries best-effort change notifications from the capture
// side to listing UIs. Delivery is fire-and-forget: a message published with
// no listener, or to a listener that is not keeping up, is dropped.
package notify

import (
	"sync"

	"github.com/hpungsan/hilite/internal/highlight"
)

// MessageType identifies a notification.
type MessageType string

const (
	HighlightSaved     MessageType = "HIGHLIGHT_SAVED"
	HighlightUpdated   MessageType = "HIGHLIGHT_UPDATED"
	HighlightDeleted   MessageType = "HIGHLIGHT_DELETED"
	HighlightsCleared  MessageType = "HIGHLIGHTS_CLEARED"
	HighlightsImported MessageType = "HIGHLIGHTS_IMPORTED"
)

// Message is one notification.
type Message struct {
	Type      MessageType          `json:"type"`
	Highlight *highlight.Highlight `json:"highlight,omitempty"`
}

// Saved returns the message announcing a newly saved highlight.
func Saved(h highlight.Highlight) Message {
	return Message{Type: HighlightSaved, Highlight: &h}
}

// Publisher is what writers need from the bus.
type Publisher interface {
	Publish(Message) int
}

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

// Bus fans messages out to subscribers. The zero value is not usable; call NewBus.
type Bus struct {
	mu     sync.RWMutex
	subs   map[chan Message]struct{}
	buffer int
}

// NewBus returns a bus whose subscribers each buffer up to buffer messages.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{subs: make(map[chan Message]struct{}), buffer: buffer}
}

// Subscribe registers a listener. The returned func unsubscribes and closes
// the channel; calling it more than once is safe.
func (b *Bus) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers msg to every subscriber with room in its buffer and
// returns how many accepted it. It never blocks.
func (b *Bus) Publish(msg Message) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for ch := range b.subs {
		select {
		case ch <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the current listener count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Discard is a Publisher with no listeners.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Message) int { return 0 }
