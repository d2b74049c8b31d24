package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/swyde/swyde-backend/internal/domain/models"
)

// Kind discriminates change feed events and ephemeral broadcasts.
type Kind string

const (
	// Change feed events, emitted after successful writes. Delivery is
	// at-least-once to current subscribers, order is not guaranteed.
	KindMemberInserted Kind = "member_inserted"
	KindMemberUpdated  Kind = "member_updated"
	KindRoomUpdated    Kind = "room_updated"

	// Ephemeral broadcasts: fire-and-forget hints, never persisted.
	KindResyncRequested Kind = "resync_requested"
	KindBeacon          Kind = "beacon"
)

// Event is one change feed entry or broadcast, scoped to a room.
type Event struct {
	// ID is the idempotence key: consumers drop events they have seen.
	ID uuid.UUID `json:"id"`

	Kind   Kind      `json:"kind"`
	RoomID uuid.UUID `json:"room_id"`

	// ActorID identifies the user whose action produced the event, so
	// observers can skip their own writes.
	ActorID uuid.UUID `json:"actor_id"`

	Member *models.Member `json:"member,omitempty"`
	Room   *models.Room   `json:"room,omitempty"`

	At time.Time `json:"at"`
}

// Broadcast reports whether the event is an ephemeral hint rather than a row change.
func (e Event) Broadcast() bool {
	return e.Kind == KindResyncRequested || e.Kind == KindBeacon
}

func NewMemberInserted(actorID uuid.UUID, member *models.Member) Event {
	return Event{
		ID:      uuid.New(),
		Kind:    KindMemberInserted,
		RoomID:  member.RoomID,
		ActorID: actorID,
		Member:  member,
		At:      time.Now(),
	}
}

func NewMemberUpdated(actorID uuid.UUID, member *models.Member) Event {
	return Event{
		ID:      uuid.New(),
		Kind:    KindMemberUpdated,
		RoomID:  member.RoomID,
		ActorID: actorID,
		Member:  member,
		At:      time.Now(),
	}
}

func NewRoomUpdated(actorID uuid.UUID, room *models.Room) Event {
	return Event{
		ID:      uuid.New(),
		Kind:    KindRoomUpdated,
		RoomID:  room.ID,
		ActorID: actorID,
		Room:    room,
		At:      time.Now(),
	}
}

func NewResyncRequested(actorID, roomID uuid.UUID) Event {
	return Event{
		ID:      uuid.New(),
		Kind:    KindResyncRequested,
		RoomID:  roomID,
		ActorID: actorID,
		At:      time.Now(),
	}
}

func NewBeacon(actorID, roomID uuid.UUID) Event {
	return Event{
		ID:      uuid.New(),
		Kind:    KindBeacon,
		RoomID:  roomID,
		ActorID: actorID,
		At:      time.Now(),
	}
}

// Message is the websocket wire envelope for client-initiated messages.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ReadyEvent toggles the sender's readiness flag.
type ReadyEvent struct {
	IsReady bool `json:"is_ready"`
}
