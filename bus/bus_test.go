package bus

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestSubscribeAssignsMonotonicIds(t *testing.T) {
	b := New()

	s1 := b.Subscribe()
	s2 := b.Subscribe()
	s3 := b.Subscribe()

	if s1.Id() >= s2.Id() || s2.Id() >= s3.Id() {
		t.Errorf("Expected strictly increasing ids, got %d, %d, %d", s1.Id(), s2.Id(), s3.Id())
	}

	if b.SubscriberCount() != 3 {
		t.Errorf("Expected 3 subscribers, got %d", b.SubscriberCount())
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()

	s1 := b.Subscribe()
	s2 := b.Subscribe()

	b.Publish("test", `{"n":1}`)

	for i, s := range []*Subscriber{s1, s2} {
		ev := s.Poll(time.Second)
		if ev == nil {
			t.Fatalf("Subscriber %d did not receive the event", i+1)
		}
		if ev.Event != "test" {
			t.Errorf("Expected event name 'test', got %q", ev.Event)
		}
		if ev.DataJson != `{"n":1}` {
			t.Errorf("Unexpected payload: %s", ev.DataJson)
		}
	}
}

func TestPublishBlankEventNameIgnored(t *testing.T) {
	b := New()
	s := b.Subscribe()

	b.Publish("", `{}`)
	b.Publish("   ", `{}`)

	if ev := s.Poll(50 * time.Millisecond); ev != nil {
		t.Errorf("Expected no event, got %+v", ev)
	}
}

func TestPublishFlattensNewlines(t *testing.T) {
	b := New()
	s := b.Subscribe()

	b.Publish("test", "{\"a\":\n\"b\"}\r")

	ev := s.Poll(time.Second)
	if ev == nil {
		t.Fatal("Expected an event")
	}
	for _, c := range ev.DataJson {
		if c == '\n' || c == '\r' {
			t.Fatalf("Payload still contains newline: %q", ev.DataJson)
		}
	}
}

func TestPublishEmptyPayloadDefaultsToEmptyObject(t *testing.T) {
	b := New()
	s := b.Subscribe()

	b.Publish("test", "")

	ev := s.Poll(time.Second)
	if ev == nil {
		t.Fatal("Expected an event")
	}
	if ev.DataJson != "{}" {
		t.Errorf("Expected {} payload, got %q", ev.DataJson)
	}
}

func TestFullMailboxDropsForThatSubscriberOnly(t *testing.T) {
	b := New()

	slow := b.Subscribe()
	fast := b.Subscribe()

	// Overfill the slow subscriber's mailbox without consuming.
	for i := 0; i < mailboxSize+50; i++ {
		b.Publish("burst", `{}`)
	}

	// The fast subscriber has the same backlog, drain a bit to prove it
	// was never blocked by the slow one.
	drained := 0
	for ev := fast.Poll(50 * time.Millisecond); ev != nil && drained < mailboxSize; ev = fast.Poll(50 * time.Millisecond) {
		drained++
	}
	if drained != mailboxSize {
		t.Errorf("Expected %d buffered events for fast subscriber, drained %d", mailboxSize, drained)
	}

	// The slow subscriber holds exactly mailboxSize events, the overflow
	// was dropped silently.
	count := 0
	for ev := slow.Poll(50 * time.Millisecond); ev != nil; ev = slow.Poll(50 * time.Millisecond) {
		count++
	}
	if count != mailboxSize {
		t.Errorf("Expected exactly %d events in slow mailbox, got %d", mailboxSize, count)
	}
}

func TestPollTimeoutReturnsNil(t *testing.T) {
	b := New()
	s := b.Subscribe()

	start := time.Now()
	ev := s.Poll(100 * time.Millisecond)
	elapsed := time.Since(start)

	if ev != nil {
		t.Errorf("Expected nil on timeout, got %+v", ev)
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("Poll returned before the timeout elapsed: %v", elapsed)
	}
}

func TestUnsubscribeDiscardsBufferedEvents(t *testing.T) {
	b := New()
	s := b.Subscribe()

	b.Publish("test", `{}`)
	b.Unsubscribe(s.Id())

	if b.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers after unsubscribe, got %d", b.SubscriberCount())
	}
	if ev := s.Poll(50 * time.Millisecond); ev != nil {
		t.Errorf("Expected nil after unsubscribe, got %+v", ev)
	}

	// Unknown and repeated ids are no-ops.
	b.Unsubscribe(s.Id())
	b.Unsubscribe(99999)
}

func TestPublishAfterUnsubscribeDoesNotPanic(t *testing.T) {
	b := New()
	s := b.Subscribe()
	b.Unsubscribe(s.Id())

	b.Publish("test", `{}`)

	if ev := s.Poll(50 * time.Millisecond); ev != nil {
		t.Errorf("Closed subscriber should not receive events, got %+v", ev)
	}
}

func TestPublishInvalidate(t *testing.T) {
	tests := []struct {
		name    string
		targets []string
		want    []string
	}{
		{
			name:    "lowercases and trims",
			targets: []string{" Bans ", "PLAYERS"},
			want:    []string{"bans", "players"},
		},
		{
			name:    "skips blanks",
			targets: []string{"stats", "", "   "},
			want:    []string{"stats"},
		},
		{
			name:    "empty list still publishes",
			targets: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			s := b.Subscribe()

			b.PublishInvalidate(tt.targets...)

			ev := s.Poll(time.Second)
			if ev == nil {
				t.Fatal("Expected an invalidate event")
			}
			if ev.Event != InvalidateEvent {
				t.Errorf("Expected event name %q, got %q", InvalidateEvent, ev.Event)
			}

			var payload struct {
				Targets []string `json:"targets"`
			}
			if err := json.Unmarshal([]byte(ev.DataJson), &payload); err != nil {
				t.Fatalf("Invalid payload JSON: %v", err)
			}
			if len(payload.Targets) != len(tt.want) {
				t.Fatalf("Expected targets %v, got %v", tt.want, payload.Targets)
			}
			for i := range tt.want {
				if payload.Targets[i] != tt.want[i] {
					t.Errorf("Expected target %q at %d, got %q", tt.want[i], i, payload.Targets[i])
				}
			}
		})
	}
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	b := New()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Churning subscribers while publishers hammer the registry.
	for n := 0; n < 4; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := b.Subscribe()
				s.Poll(time.Millisecond)
				b.Unsubscribe(s.Id())
			}
		}()
	}

	for n := 0; n < 4; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				b.PublishInvalidate("players", "bans")
			}
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(stop)
	wg.Wait()

	if b.SubscriberCount() != 0 {
		t.Errorf("Expected empty registry after churn, got %d", b.SubscriberCount())
	}
}
