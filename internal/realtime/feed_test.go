package realtime_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swyde/swyde-backend/internal/domain/events"
	"github.com/swyde/swyde-backend/internal/domain/models"
	"github.com/swyde/swyde-backend/internal/realtime"
)

func receiveEvent(t *testing.T, sub *realtime.Subscription) events.Event {
	t.Helper()

	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}

func memberInserted(roomID uuid.UUID) events.Event {
	member := &models.Member{
		ID:       uuid.New(),
		RoomID:   roomID,
		UserID:   uuid.New(),
		IsActive: true,
	}
	return events.NewMemberInserted(member.UserID, member)
}

func TestPublishReachesRoomSubscribersOnly(t *testing.T) {
	feed := realtime.NewFeed()

	roomA := uuid.New()
	roomB := uuid.New()

	subA := feed.Subscribe(roomA)
	defer subA.Cancel()
	subB := feed.Subscribe(roomB)
	defer subB.Cancel()

	sent := memberInserted(roomA)
	feed.Publish(sent)

	got := receiveEvent(t, subA)
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, events.KindMemberInserted, got.Kind)

	select {
	case ev := <-subB.Events():
		t.Fatalf("unexpected event %q in another room", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	feed := realtime.NewFeed()
	roomID := uuid.New()

	first := feed.Subscribe(roomID)
	defer first.Cancel()
	second := feed.Subscribe(roomID)
	defer second.Cancel()

	sent := memberInserted(roomID)
	feed.Publish(sent)

	assert.Equal(t, sent.ID, receiveEvent(t, first).ID)
	assert.Equal(t, sent.ID, receiveEvent(t, second).ID)
}

func TestCancelStopsDeliveryAndClosesChannel(t *testing.T) {
	feed := realtime.NewFeed()
	roomID := uuid.New()

	sub := feed.Subscribe(roomID)
	require.Equal(t, 1, feed.SubscriberCount(roomID))

	sub.Cancel()
	assert.Equal(t, 0, feed.SubscriberCount(roomID))

	// Publishing after cancel must not reach the subscription.
	feed.Publish(memberInserted(roomID))

	_, ok := <-sub.Events()
	assert.False(t, ok, "channel stays closed after cancel")

	// Cancel is idempotent.
	sub.Cancel()
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	feed := realtime.NewFeedWithBuffer(1)
	roomID := uuid.New()

	sub := feed.Subscribe(roomID)
	defer sub.Cancel()

	kept := memberInserted(roomID)
	dropped := memberInserted(roomID)

	done := make(chan struct{})
	go func() {
		feed.Publish(kept)
		feed.Publish(dropped)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	got := receiveEvent(t, sub)
	assert.Equal(t, kept.ID, got.ID)

	select {
	case ev := <-sub.Events():
		t.Fatalf("expected overflow event to be dropped, got %q", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastsReachOnlyCurrentSubscribers(t *testing.T) {
	feed := realtime.NewFeed()
	roomID := uuid.New()

	// A broadcast published with no subscribers is lost, not queued.
	feed.Publish(events.NewResyncRequested(uuid.New(), roomID))

	sub := feed.Subscribe(roomID)
	defer sub.Cancel()

	select {
	case ev := <-sub.Events():
		t.Fatalf("late subscriber received earlier broadcast %q", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}

	beacon := events.NewBeacon(uuid.New(), roomID)
	feed.Publish(beacon)

	got := receiveEvent(t, sub)
	assert.Equal(t, beacon.ID, got.ID)
	assert.True(t, got.Broadcast())
}

func TestSubscriberCountPerRoom(t *testing.T) {
	feed := realtime.NewFeed()

	roomA := uuid.New()
	roomB := uuid.New()

	assert.Equal(t, 0, feed.SubscriberCount(roomA))

	first := feed.Subscribe(roomA)
	second := feed.Subscribe(roomA)
	third := feed.Subscribe(roomB)

	assert.Equal(t, 2, feed.SubscriberCount(roomA))
	assert.Equal(t, 1, feed.SubscriberCount(roomB))

	first.Cancel()
	assert.Equal(t, 1, feed.SubscriberCount(roomA))

	second.Cancel()
	third.Cancel()
	assert.Equal(t, 0, feed.SubscriberCount(roomA))
	assert.Equal(t, 0, feed.SubscriberCount(roomB))
}
