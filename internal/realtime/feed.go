package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/swyde/swyde-backend/internal/application/constant"
	"github.com/swyde/swyde-backend/internal/application/metric"
	"github.com/swyde/swyde-backend/internal/domain/events"
)

const defaultBufferSize = 64

// Feed fans change events and ephemeral broadcasts out to room subscribers.
// Delivery is at-least-once and unordered for change events; broadcasts reach
// only currently subscribed peers and are never persisted. A subscriber that
// cannot keep up loses events; the room view's resync path recovers from that.
type Feed struct {
	subscribers map[uuid.UUID]map[*Subscription]struct{}
	bufferSize  int

	mu sync.RWMutex
}

// Subscription is one subscriber's handle on a room's feed.
type Subscription struct {
	roomID uuid.UUID
	ch     chan events.Event

	closeOnce sync.Once
	feed      *Feed
}

// Events is the subscriber's receive channel. It is closed on Cancel.
func (s *Subscription) Events() <-chan events.Event {
	return s.ch
}

// Cancel removes the subscription; no further events are delivered.
func (s *Subscription) Cancel() {
	s.feed.unsubscribe(s)
}

func NewFeed() *Feed {
	return NewFeedWithBuffer(defaultBufferSize)
}

func NewFeedWithBuffer(bufferSize int) *Feed {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	return &Feed{
		subscribers: make(map[uuid.UUID]map[*Subscription]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers for all events scoped to the given room.
func (f *Feed) Subscribe(roomID uuid.UUID) *Subscription {
	sub := &Subscription{
		roomID: roomID,
		ch:     make(chan events.Event, f.bufferSize),
		feed:   f,
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subscribers[roomID]; !ok {
		f.subscribers[roomID] = make(map[*Subscription]struct{})
	}
	f.subscribers[roomID][sub] = struct{}{}

	return sub
}

// Publish delivers an event to every current subscriber of its room.
func (f *Feed) Publish(event events.Event) {
	metric.RecordFeedEvent(string(event.Kind))

	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub := range f.subscribers[event.RoomID] {
		select {
		case sub.ch <- event:
		default:
			metric.RecordFeedEventDropped()
			slog.Warn(
				"feed subscriber too slow, dropping event",
				slog.Any(constant.RoomID, event.RoomID),
				slog.String("kind", string(event.Kind)),
			)
		}
	}
}

func (f *Feed) unsubscribe(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, ok := f.subscribers[sub.roomID]
	if !ok {
		return
	}

	if _, ok := subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	if len(subs) == 0 {
		delete(f.subscribers, sub.roomID)
	}

	sub.closeOnce.Do(func() { close(sub.ch) })
}

// SubscriberCount reports how many subscriptions a room currently has.
func (f *Feed) SubscriberCount(roomID uuid.UUID) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.subscribers[roomID])
}
