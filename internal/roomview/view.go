package roomview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/swyde/swyde-backend/internal/application/constant"
	"github.com/swyde/swyde-backend/internal/domain/events"
	"github.com/swyde/swyde-backend/internal/domain/models"
)

const (
	updateBufferSize = 16

	// seenEventsSize bounds the idempotence cache. The feed is at-least-once,
	// so duplicates can arrive well after the original delivery.
	seenEventsSize = 256
)

// Loader performs a full load of the room and its active members.
type Loader func(ctx context.Context) (*models.Room, []models.Member, error)

// NameResolver looks up a display name for a user that appeared incrementally.
type NameResolver func(ctx context.Context, userID uuid.UUID) (string, error)

type NotificationKind string

const (
	NotificationMemberJoined NotificationKind = "member_joined"
	NotificationRoomEnded    NotificationKind = "room_ended"
)

type Notification struct {
	Kind   NotificationKind `json:"kind"`
	Member *models.Member   `json:"member,omitempty"`
}

// Snapshot is the reconciled local view of a room and its members.
type Snapshot struct {
	Room    models.Room     `json:"room"`
	Members []models.Member `json:"members"`
}

// Update is pushed to the consumer after every reconciliation step that
// changed the view. Notification is nil for silent changes.
type Update struct {
	Snapshot     Snapshot      `json:"snapshot"`
	Notification *Notification `json:"notification,omitempty"`
}

type Config struct {
	ViewerID uuid.UUID
	RoomID   uuid.UUID

	// Load fetches the full state; used once on start and again on every
	// resync request.
	Load Loader

	// Events is the room's change feed subscription.
	Events <-chan events.Event

	// SendBeacon publishes a presence broadcast; optional.
	SendBeacon     func()
	BeaconInterval time.Duration

	// ResolveName enriches incrementally-inserted members; optional.
	ResolveName NameResolver
}

// View keeps an eventually consistent projection of one room's membership,
// reconciled by a single loop over the change feed. Duplicate deliveries are
// dropped by event ID, and a resync request replaces incremental patching
// with a full reload.
type View struct {
	cfg  Config
	seen *lru.Cache[uuid.UUID, struct{}]

	room    models.Room
	members []models.Member

	updates chan Update
}

func New(cfg Config) (*View, error) {
	if cfg.Load == nil {
		return nil, fmt.Errorf("roomview: Load is required")
	}
	if cfg.Events == nil {
		return nil, fmt.Errorf("roomview: Events is required")
	}

	seen, err := lru.New[uuid.UUID, struct{}](seenEventsSize)
	if err != nil {
		return nil, fmt.Errorf("roomview: seen cache: %w", err)
	}

	return &View{
		cfg:     cfg,
		seen:    seen,
		updates: make(chan Update, updateBufferSize),
	}, nil
}

// Updates delivers reconciled state to the consumer. Closed when Run returns.
func (v *View) Updates() <-chan Update {
	return v.updates
}

// Run loads the initial state and then reconciles until the context is
// cancelled, the feed subscription is closed, or the room ends. A failed
// initial load is terminal.
func (v *View) Run(ctx context.Context) error {
	defer close(v.updates)

	if err := v.reload(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	v.emit(ctx, nil)

	var beacon *time.Ticker
	if v.cfg.SendBeacon != nil && v.cfg.BeaconInterval > 0 {
		beacon = time.NewTicker(v.cfg.BeaconInterval)
		defer beacon.Stop()
	} else {
		beacon = time.NewTicker(time.Hour)
		beacon.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-beacon.C:
			v.cfg.SendBeacon()

		case ev, ok := <-v.cfg.Events:
			if !ok {
				return nil
			}

			done, err := v.apply(ctx, ev)
			if err != nil {
				slog.Error(
					"reconcile event",
					slog.Any(constant.RoomID, v.cfg.RoomID),
					slog.String("kind", string(ev.Kind)),
					slog.Any(constant.Error, err),
				)
				continue
			}
			if done {
				return nil
			}
		}
	}
}

// apply reconciles one event into the view. It reports done=true when the
// room ended and the loop should stop.
func (v *View) apply(ctx context.Context, ev events.Event) (bool, error) {
	if ev.Kind == events.KindBeacon {
		// Presence only, no reconciliation effect.
		return false, nil
	}

	if _, dup := v.seen.Get(ev.ID); dup {
		return false, nil
	}
	v.seen.Add(ev.ID, struct{}{})

	switch ev.Kind {
	case events.KindMemberInserted:
		return false, v.applyMemberInserted(ctx, ev)

	case events.KindMemberUpdated:
		v.applyMemberUpdated(ctx, ev)
		return false, nil

	case events.KindRoomUpdated:
		return v.applyRoomUpdated(ctx, ev), nil

	case events.KindResyncRequested:
		if err := v.reload(ctx); err != nil {
			// Keep the current view; the next resync or event will catch up.
			return false, fmt.Errorf("resync reload: %w", err)
		}
		v.emit(ctx, nil)
		return false, nil

	default:
		return false, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

func (v *View) applyMemberInserted(ctx context.Context, ev events.Event) error {
	if ev.Member == nil {
		return fmt.Errorf("member_inserted without member")
	}

	// The viewer's own join is already part of the initial load.
	if ev.ActorID == v.cfg.ViewerID || ev.Member.UserID == v.cfg.ViewerID {
		return nil
	}

	if v.findMember(ev.Member.UserID) != nil {
		return nil
	}

	member := *ev.Member
	if member.Username == "" {
		member.Username = v.resolveName(ctx, member.UserID)
	}

	v.members = append(v.members, member)

	v.emit(ctx, &Notification{Kind: NotificationMemberJoined, Member: &member})
	return nil
}

func (v *View) applyMemberUpdated(ctx context.Context, ev events.Event) {
	if ev.Member == nil {
		return
	}

	existing := v.findMember(ev.Member.UserID)
	if existing == nil {
		return
	}

	existing.IsReady = ev.Member.IsReady
	existing.IsActive = ev.Member.IsActive
	existing.LeftAt = ev.Member.LeftAt

	v.emit(ctx, nil)
}

func (v *View) applyRoomUpdated(ctx context.Context, ev events.Event) bool {
	if ev.Room == nil {
		return false
	}

	wasActive := v.room.IsActive
	v.room = *ev.Room

	if wasActive && !v.room.IsActive {
		if ev.ActorID != v.cfg.ViewerID {
			v.emit(ctx, &Notification{Kind: NotificationRoomEnded})
		}
		return true
	}

	v.emit(ctx, nil)
	return false
}

func (v *View) reload(ctx context.Context) error {
	room, members, err := v.cfg.Load(ctx)
	if err != nil {
		return err
	}

	v.room = *room
	v.members = members
	return nil
}

func (v *View) resolveName(ctx context.Context, userID uuid.UUID) string {
	if v.cfg.ResolveName == nil {
		return models.AnonymousName
	}

	name, err := v.cfg.ResolveName(ctx, userID)
	if err != nil || name == "" {
		slog.Warn(
			"resolve member name",
			slog.Any(constant.UserID, userID),
			slog.Any(constant.Error, err),
		)
		return models.AnonymousName
	}

	return name
}

func (v *View) findMember(userID uuid.UUID) *models.Member {
	for i := range v.members {
		if v.members[i].UserID == userID {
			return &v.members[i]
		}
	}
	return nil
}

func (v *View) snapshot() Snapshot {
	members := make([]models.Member, len(v.members))
	copy(members, v.members)

	return Snapshot{Room: v.room, Members: members}
}

func (v *View) emit(ctx context.Context, n *Notification) {
	select {
	case v.updates <- Update{Snapshot: v.snapshot(), Notification: n}:
	case <-ctx.Done():
	}
}
