package roomview_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swyde/swyde-backend/internal/domain/events"
	"github.com/swyde/swyde-backend/internal/domain/models"
	"github.com/swyde/swyde-backend/internal/roomview"
)

const waitTimeout = 2 * time.Second

type testHarness struct {
	viewerID uuid.UUID
	room     *models.Room

	events  chan events.Event
	view    *roomview.View
	cancel  context.CancelFunc
	runDone chan error

	loads atomic.Int64
}

// newHarness starts a view whose loader returns the given members around a
// room hosted by the viewer. The members func receives the harness because
// the loader runs before newHarness returns.
func newHarness(t *testing.T, cfgMut func(*roomview.Config), members func(h *testHarness) []models.Member) *testHarness {
	t.Helper()

	h := &testHarness{
		viewerID: uuid.New(),
		events:   make(chan events.Event, 16),
		runDone:  make(chan error, 1),
	}
	h.room = models.NewRoom("Q7R2K9", h.viewerID)

	cfg := roomview.Config{
		ViewerID: h.viewerID,
		RoomID:   h.room.ID,
		Load: func(ctx context.Context) (*models.Room, []models.Member, error) {
			h.loads.Add(1)
			clone := *h.room
			return &clone, members(h), nil
		},
		Events: h.events,
	}
	if cfgMut != nil {
		cfgMut(&cfg)
	}

	view, err := roomview.New(cfg)
	require.NoError(t, err)
	h.view = view

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	t.Cleanup(cancel)

	go func() {
		h.runDone <- view.Run(ctx)
	}()

	return h
}

func selfOnly(h *testHarness) []models.Member {
	return []models.Member{h.selfMember()}
}

func (h *testHarness) waitUpdate(t *testing.T) roomview.Update {
	t.Helper()

	select {
	case update, ok := <-h.view.Updates():
		require.True(t, ok, "updates channel closed unexpectedly")
		return update
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for update")
		return roomview.Update{}
	}
}

func (h *testHarness) waitDone(t *testing.T) error {
	t.Helper()

	select {
	case err := <-h.runDone:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for view to stop")
		return nil
	}
}

func (h *testHarness) selfMember() models.Member {
	return models.Member{
		ID:       uuid.New(),
		RoomID:   h.room.ID,
		UserID:   h.viewerID,
		Username: "host",
		IsActive: true,
	}
}

func otherMember(roomID uuid.UUID, name string) models.Member {
	return models.Member{
		ID:       uuid.New(),
		RoomID:   roomID,
		UserID:   uuid.New(),
		Username: name,
		IsActive: true,
	}
}

func TestInitialLoadEmitsSnapshot(t *testing.T) {
	h := newHarness(t, nil, selfOnly)

	update := h.waitUpdate(t)
	assert.Nil(t, update.Notification)
	assert.Equal(t, "Q7R2K9", update.Snapshot.Room.Code)
	require.Len(t, update.Snapshot.Members, 1)
	assert.Equal(t, h.viewerID, update.Snapshot.Members[0].UserID)
}

func TestInitialLoadFailureIsTerminal(t *testing.T) {
	ch := make(chan events.Event)
	view, err := roomview.New(roomview.Config{
		ViewerID: uuid.New(),
		RoomID:   uuid.New(),
		Load: func(ctx context.Context) (*models.Room, []models.Member, error) {
			return nil, nil, errors.New("load failed")
		},
		Events: ch,
	})
	require.NoError(t, err)

	runErr := view.Run(context.Background())
	require.Error(t, runErr)

	_, ok := <-view.Updates()
	assert.False(t, ok, "no updates expected after a failed initial load")
}

func TestMemberInsertedAppendsAndNotifies(t *testing.T) {
	h := newHarness(t, nil, selfOnly)
	h.waitUpdate(t)

	joiner := otherMember(h.room.ID, "bob")
	h.events <- events.NewMemberInserted(joiner.UserID, &joiner)

	update := h.waitUpdate(t)
	require.NotNil(t, update.Notification)
	assert.Equal(t, roomview.NotificationMemberJoined, update.Notification.Kind)
	require.Len(t, update.Snapshot.Members, 2)

	// The incremental path must not have triggered a reload.
	assert.Equal(t, int64(1), h.loads.Load())
}

func TestMemberInsertedDuplicateDeliveryIsDropped(t *testing.T) {
	h := newHarness(t, nil, selfOnly)
	h.waitUpdate(t)

	joiner := otherMember(h.room.ID, "bob")
	ev := events.NewMemberInserted(joiner.UserID, &joiner)

	h.events <- ev
	h.events <- ev

	update := h.waitUpdate(t)
	require.NotNil(t, update.Notification)
	require.Len(t, update.Snapshot.Members, 2)

	// Force another reconciliation step; the duplicate must not have
	// produced a second update in between.
	straggler := otherMember(h.room.ID, "carol")
	h.events <- events.NewMemberInserted(straggler.UserID, &straggler)

	update = h.waitUpdate(t)
	require.NotNil(t, update.Notification)
	assert.Equal(t, "carol", update.Notification.Member.Username)
	assert.Len(t, update.Snapshot.Members, 3)
}

func TestMemberInsertedOwnActionIsSkipped(t *testing.T) {
	h := newHarness(t, nil, selfOnly)
	h.waitUpdate(t)

	self := h.selfMember()
	h.events <- events.NewMemberInserted(h.viewerID, &self)

	// The own-join event is silently dropped: the next update comes from
	// someone else and still holds a single foreign member.
	joiner := otherMember(h.room.ID, "bob")
	h.events <- events.NewMemberInserted(joiner.UserID, &joiner)

	update := h.waitUpdate(t)
	assert.Len(t, update.Snapshot.Members, 2)
}

func TestMemberUpdatedPatchesInPlace(t *testing.T) {
	joiner := otherMember(uuid.Nil, "bob")

	h := newHarness(t, nil, func(h *testHarness) []models.Member {
		return []models.Member{h.selfMember(), joiner}
	})
	h.waitUpdate(t)

	patched := joiner
	patched.IsReady = true
	patched.Username = ""
	h.events <- events.NewMemberUpdated(joiner.UserID, &patched)

	update := h.waitUpdate(t)
	assert.Nil(t, update.Notification, "member updates are silent")
	require.Len(t, update.Snapshot.Members, 2)

	for _, m := range update.Snapshot.Members {
		if m.UserID == joiner.UserID {
			assert.True(t, m.IsReady)
			assert.Equal(t, "bob", m.Username, "username survives the patch")
		}
	}
}

func TestRoomEndedNotifiesExactlyOnceAndStops(t *testing.T) {
	h := newHarness(t, nil, selfOnly)
	h.waitUpdate(t)

	actorID := uuid.New()
	ended := *h.room
	ended.IsActive = false
	h.events <- events.NewRoomUpdated(actorID, &ended)

	update := h.waitUpdate(t)
	require.NotNil(t, update.Notification)
	assert.Equal(t, roomview.NotificationRoomEnded, update.Notification.Kind)
	assert.False(t, update.Snapshot.Room.IsActive)

	require.NoError(t, h.waitDone(t))

	// The loop stopped: the updates channel is closed, so the
	// notification cannot recur.
	_, ok := <-h.view.Updates()
	assert.False(t, ok)
}

func TestRoomEndedByViewerIsSilent(t *testing.T) {
	h := newHarness(t, nil, selfOnly)
	h.waitUpdate(t)

	ended := *h.room
	ended.IsActive = false
	h.events <- events.NewRoomUpdated(h.viewerID, &ended)

	require.NoError(t, h.waitDone(t))

	for update := range h.view.Updates() {
		assert.Nil(t, update.Notification)
	}
}

func TestResyncRequestedReloads(t *testing.T) {
	extra := atomic.Bool{}

	h := newHarness(t, nil, func(h *testHarness) []models.Member {
		members := []models.Member{h.selfMember()}
		if extra.Load() {
			members = append(members, otherMember(h.room.ID, "bob"))
		}
		return members
	})
	h.waitUpdate(t)

	extra.Store(true)
	h.events <- events.NewResyncRequested(uuid.New(), h.room.ID)

	update := h.waitUpdate(t)
	assert.Nil(t, update.Notification)
	assert.Len(t, update.Snapshot.Members, 2)
	assert.Equal(t, int64(2), h.loads.Load())
}

func TestBeaconFiresAtInterval(t *testing.T) {
	var beacons atomic.Int64

	h := newHarness(t, func(cfg *roomview.Config) {
		cfg.BeaconInterval = 10 * time.Millisecond
		cfg.SendBeacon = func() { beacons.Add(1) }
	}, selfOnly)
	h.waitUpdate(t)

	assert.Eventually(t, func() bool {
		return beacons.Load() >= 2
	}, waitTimeout, 5*time.Millisecond)
}

func TestBeaconEventHasNoReconciliationEffect(t *testing.T) {
	h := newHarness(t, nil, selfOnly)
	h.waitUpdate(t)

	h.events <- events.NewBeacon(uuid.New(), h.room.ID)

	joiner := otherMember(h.room.ID, "bob")
	h.events <- events.NewMemberInserted(joiner.UserID, &joiner)

	update := h.waitUpdate(t)
	require.NotNil(t, update.Notification)
	assert.Equal(t, roomview.NotificationMemberJoined, update.Notification.Kind)
	assert.Equal(t, int64(1), h.loads.Load())
}

func TestUnknownMemberNameFallsBack(t *testing.T) {
	h := newHarness(t, func(cfg *roomview.Config) {
		cfg.ResolveName = func(ctx context.Context, userID uuid.UUID) (string, error) {
			return "", errors.New("lookup failed")
		}
	}, selfOnly)
	h.waitUpdate(t)

	joiner := otherMember(h.room.ID, "")
	h.events <- events.NewMemberInserted(joiner.UserID, &joiner)

	update := h.waitUpdate(t)
	require.NotNil(t, update.Notification)
	assert.Equal(t, models.AnonymousName, update.Notification.Member.Username)
}

func TestTeardownStopsProcessing(t *testing.T) {
	h := newHarness(t, nil, selfOnly)
	h.waitUpdate(t)

	h.cancel()
	require.NoError(t, h.waitDone(t))

	_, ok := <-h.view.Updates()
	assert.False(t, ok)
}
