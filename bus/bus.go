// Package bus is the in-memory invalidation fan-out used for admin UI
// live updates (SSE). It is a lossy signal channel, not a data channel:
// a full mailbox drops the event for that subscriber only, and the
// observer catches up on its next refresh cycle.
package bus

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

const mailboxSize = 500

// InvalidateEvent is the fixed event name for domain invalidations.
const InvalidateEvent = "invalidate"

// Event is one published bus event. DataJson is always a single line.
type Event struct {
	Event    string
	DataJson string
}

// Bus owns the subscriber registry. One Bus is created by the process
// composition root and handed to every publisher; there is no package
// level singleton.
type Bus struct {
	mu     sync.Mutex
	nextId int64
	subs   map[int64]*Subscriber
}

// Subscriber is an ephemeral, process-memory-only handle with a bounded
// mailbox. Destroyed on Unsubscribe or process restart, never persisted.
type Subscriber struct {
	id     int64
	mail   chan Event
	closed chan struct{}
	once   sync.Once
}

func New() *Bus {
	return &Bus{subs: make(map[int64]*Subscriber)}
}

// Subscribe registers a new subscriber with a fresh monotonic id.
func (b *Bus) Subscribe() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextId++
	s := &Subscriber{
		id:     b.nextId,
		mail:   make(chan Event, mailboxSize),
		closed: make(chan struct{}),
	}
	b.subs[s.id] = s
	return s
}

// Unsubscribe removes and closes a subscriber. Buffered events are
// discarded. Unknown ids are ignored.
func (b *Bus) Unsubscribe(id int64) {
	b.mu.Lock()
	s := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()

	if s != nil {
		s.close()
	}
}

// Publish fans an event out to every current subscriber. Enqueue is
// non-blocking: a full mailbox silently drops the event for that
// subscriber. Publish never fails and never blocks on a slow consumer.
func (b *Bus) Publish(eventName, jsonPayload string) {
	if strings.TrimSpace(eventName) == "" {
		return
	}
	payload := jsonPayload
	if payload == "" {
		payload = "{}"
	}
	// SSE data lines must not contain raw newlines.
	payload = strings.ReplaceAll(payload, "\n", " ")
	payload = strings.ReplaceAll(payload, "\r", " ")

	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	ev := Event{Event: eventName, DataJson: payload}
	for _, s := range subs {
		s.offer(ev)
	}
}

// PublishInvalidate publishes an "invalidate" event naming the changed
// domains, e.g. PublishInvalidate("bans", "players"). Target names are
// trimmed and lowercased; blanks are skipped.
func (b *Bus) PublishInvalidate(targets ...string) {
	cleaned := make([]string, 0, len(targets))
	for _, t := range targets {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		cleaned = append(cleaned, t)
	}

	payload, err := json.Marshal(struct {
		Targets []string `json:"targets"`
	}{Targets: cleaned})
	if err != nil {
		return
	}
	b.Publish(InvalidateEvent, string(payload))
}

// SubscriberCount reports the current registry size.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (s *Subscriber) Id() int64 {
	return s.id
}

func (s *Subscriber) offer(ev Event) {
	select {
	case <-s.closed:
		return
	default:
	}
	select {
	case s.mail <- ev:
	default:
		// Mailbox full: drop for this subscriber only.
	}
}

// Poll blocks up to timeout and returns the next buffered event, or nil
// on timeout and after the subscriber was closed. The nil return is what
// the streaming endpoint turns into a keep-alive.
func (s *Subscriber) Poll(timeout time.Duration) *Event {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-s.mail:
		return &ev
	case <-s.closed:
		return nil
	case <-timer.C:
		return nil
	}
}

func (s *Subscriber) close() {
	s.once.Do(func() {
		close(s.closed)
		// Drain so buffered events do not outlive the subscriber.
		for {
			select {
			case <-s.mail:
			default:
				return
			}
		}
	})
}
