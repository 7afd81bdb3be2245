package core

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valter-silva-au/goal-board/pkg/models"
)

// Topic names the kind of board event carried on the Bus.
type Topic string

const (
	TopicTaskCompleted    Topic = "task.completed"
	TopicTaskReopened     Topic = "task.reopened"
	TopicTaskReordered    Topic = "task.reordered"
	TopicProjectSelected  Topic = "project.selected"
	TopicProjectReplaced  Topic = "project.replaced"
	TopicCelebrationFired Topic = "celebration.fired"
	TopicQuoteRefreshed   Topic = "quote.refreshed"
)

// Mutates reports whether events on this topic change persisted state.
func (t Topic) Mutates() bool {
	return slices.Contains(MutatingTopics, t)
}

// MutatingTopics lists every topic whose events change persisted state.
var MutatingTopics = []Topic{
	TopicTaskCompleted, TopicTaskReopened, TopicTaskReordered,
	TopicProjectSelected, TopicProjectReplaced,
}

// Event is a message published on the Bus after a store mutation or a side
// effect has happened. Fields irrelevant to the topic are left zero.
type Event struct {
	Topic      Topic
	Time       time.Time
	ProjectKey models.ProjectKey
	Task       models.Task
	// Previous and Completed carry the toggle transition for task events.
	Previous  bool
	Completed bool
	// SourceID and TargetID are the positional ids a reorder was asked for.
	SourceID int
	TargetID int
	Message  string
}

// Subscription receives events published on a Bus. C is closed when the
// subscription ends.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	done    chan struct{}
	once    sync.Once
	bus     *Bus
	topics  []Topic // empty means every topic
	lossy   bool
	dropped atomic.Uint64
}

func (s *Subscription) wants(t Topic) bool {
	return len(s.topics) == 0 || slices.Contains(s.topics, t)
}

// Dropped returns how many events a dropping subscription has discarded
// because its buffer was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Unsubscribe detaches the subscription and closes C. Publishers blocked on
// this subscriber are released. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.bus.remove(s)
}

// Bus fans events out to subscribers in publish order. Publish blocks while a
// lossless subscriber's buffer is full, so those consumers must keep draining
// C and must not publish topics they are subscribed to.
type Bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	closed bool
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a lossless subscriber with the given buffer size. Only
// events on topics are delivered; no topics means every topic. Subscribing to
// a closed or nil bus returns an already-closed subscription.
func (b *Bus) Subscribe(buffer int, topics ...Topic) *Subscription {
	return b.subscribe(buffer, false, topics)
}

// SubscribeDropping registers a subscriber that never holds up Publish: an
// event that does not fit in the buffer is discarded and counted in Dropped.
// It suits consumers that only redraw from the store.
func (b *Bus) SubscribeDropping(buffer int, topics ...Topic) *Subscription {
	return b.subscribe(buffer, true, topics)
}

func (b *Bus) subscribe(buffer int, lossy bool, topics []Topic) *Subscription {
	ch := make(chan Event, buffer)
	s := &Subscription{
		C:      ch,
		ch:     ch,
		done:   make(chan struct{}),
		bus:    b,
		topics: slices.Clone(topics),
		lossy:  lossy,
	}

	if b == nil {
		s.once.Do(func() {
			close(s.done)
			close(s.ch)
		})
		return s
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.once.Do(func() {
			close(s.done)
			close(s.ch)
		})
		return s
	}
	b.subs = append(b.subs, s)
	return s
}

// Publish delivers e to every current subscriber. A nil Bus drops events.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if !s.wants(e.Topic) {
			continue
		}
		if s.lossy {
			select {
			case s.ch <- e:
			default:
				s.dropped.Add(1)
			}
			continue
		}
		select {
		case s.ch <- e:
		case <-s.done:
		}
	}
}

// Close ends every subscription. Events already buffered stay readable
// until the channel drains.
func (b *Bus) Close() {
	b.mu.RLock()
	subs := append([]*Subscription(nil), b.subs...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.once.Do(func() { close(s.done) })
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}

func (b *Bus) remove(s *Subscription) {
	var first bool
	s.once.Do(func() {
		first = true
		close(s.done)
	})
	if !first || b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == s {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}
