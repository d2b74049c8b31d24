package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/swyde/swyde-backend/internal/application/constant"
	"github.com/swyde/swyde-backend/internal/domain/events"
	"github.com/swyde/swyde-backend/internal/domain/input"
	"github.com/swyde/swyde-backend/internal/domain/models"
	"github.com/swyde/swyde-backend/internal/infra/adapters/postgres/repository"
)

// EventPublisher pushes change events and broadcasts to room subscribers.
// Satisfied by realtime.Feed.
type EventPublisher interface {
	Publish(events.Event)
}

var (
	ErrRoomNotFound = errors.New("room not found or inactive")
	ErrNotMember    = errors.New("not a member of this room")
	ErrNotHost      = errors.New("only the host can end the room")
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// codeMaxRetries bounds regeneration when a generated code collides
	// with an existing active room.
	codeMaxRetries = 5
)

type RoomUsecase interface {
	CreateRoom(ctx context.Context, hostID uuid.UUID) (*models.Room, error)
	JoinRoom(ctx context.Context, in *input.JoinRoomInput) (*models.Room, *models.Member, error)
	LeaveRoom(ctx context.Context, in *input.LeaveRoomInput) error
	EndRoom(ctx context.Context, hostID, roomID uuid.UUID) error
	SetReady(ctx context.Context, in *input.SetReadyInput) (*models.Member, error)

	RoomWithMembers(ctx context.Context, roomID uuid.UUID) (*models.Room, []models.Member, error)
	MemberName(ctx context.Context, userID uuid.UUID) (string, error)
}

type roomUsecase struct {
	roomRepo repository.RoomRepository
	userRepo repository.UserRepository
	feed     EventPublisher
}

func NewRoomUsecase(roomRepo repository.RoomRepository, userRepo repository.UserRepository, feed EventPublisher) RoomUsecase {
	return &roomUsecase{
		roomRepo: roomRepo,
		userRepo: userRepo,
		feed:     feed,
	}
}

// CreateRoom inserts a room under a fresh code and the host's membership.
// A code collision with another active room regenerates and retries.
func (uc *roomUsecase) CreateRoom(ctx context.Context, hostID uuid.UUID) (*models.Room, error) {
	var room *models.Room

	backoff := retry.WithMaxRetries(codeMaxRetries, retry.NewConstant(10*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		candidate := models.NewRoom(generateRoomCode(), hostID)

		if err := uc.roomRepo.CreateRoom(ctx, candidate); err != nil {
			if errors.Is(err, repository.ErrCodeConflict) {
				return retry.RetryableError(err)
			}
			return err
		}

		room = candidate
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	member, _, err := uc.roomRepo.UpsertMember(ctx, room.ID, hostID)
	if err != nil {
		// Compensate so no active room exists without its host.
		if derr := uc.roomRepo.DeactivateRoom(ctx, room.ID); derr != nil {
			slog.Error(
				"compensating room deactivation failed",
				slog.Any(constant.RoomID, room.ID),
				slog.Any(constant.Error, derr),
			)
		}
		return nil, fmt.Errorf("add host membership: %w", err)
	}

	uc.enrichUsername(ctx, member)
	uc.feed.Publish(events.NewMemberInserted(hostID, member))

	return room, nil
}

// JoinRoom normalizes the code, looks up the active room and upserts the
// caller's membership. Re-joining is idempotent and restores active status.
func (uc *roomUsecase) JoinRoom(ctx context.Context, in *input.JoinRoomInput) (*models.Room, *models.Member, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))

	room, err := uc.roomRepo.GetActiveRoomByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrRoomNotFound
		}
		return nil, nil, fmt.Errorf("lookup room by code: %w", err)
	}

	member, inserted, err := uc.roomRepo.UpsertMember(ctx, room.ID, in.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("join room: %w", err)
	}

	uc.enrichUsername(ctx, member)

	if inserted {
		uc.feed.Publish(events.NewMemberInserted(in.UserID, member))
	} else {
		uc.feed.Publish(events.NewMemberUpdated(in.UserID, member))
	}

	return room, member, nil
}

// LeaveRoom deactivates the caller's membership. The host leaving also ends
// the room. Rows are kept for the audit trail.
func (uc *roomUsecase) LeaveRoom(ctx context.Context, in *input.LeaveRoomInput) error {
	member, err := uc.roomRepo.DeactivateMember(ctx, in.RoomID, in.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("leave room: %w", err)
	}

	uc.feed.Publish(events.NewMemberUpdated(in.UserID, member))

	room, err := uc.roomRepo.GetRoomByID(ctx, in.RoomID)
	if err != nil {
		return fmt.Errorf("lookup room: %w", err)
	}

	if room.HostID == in.UserID && room.IsActive {
		if err := uc.roomRepo.DeactivateRoom(ctx, in.RoomID); err != nil {
			return fmt.Errorf("end room: %w", err)
		}

		room.IsActive = false
		uc.feed.Publish(events.NewRoomUpdated(in.UserID, room))
	}

	// Best-effort hint so peers resync instead of waiting on the change feed.
	uc.feed.Publish(events.NewResyncRequested(in.UserID, in.RoomID))

	return nil
}

// EndRoom is LeaveRoom performed by the host; deactivating the room is the
// side effect that propagates to every member.
func (uc *roomUsecase) EndRoom(ctx context.Context, hostID, roomID uuid.UUID) error {
	room, err := uc.roomRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("lookup room: %w", err)
	}

	if room.HostID != hostID {
		return ErrNotHost
	}

	return uc.LeaveRoom(ctx, &input.LeaveRoomInput{UserID: hostID, RoomID: roomID})
}

func (uc *roomUsecase) SetReady(ctx context.Context, in *input.SetReadyInput) (*models.Member, error) {
	member, err := uc.roomRepo.SetMemberReady(ctx, in.RoomID, in.UserID, in.IsReady)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("set ready: %w", err)
	}

	uc.enrichUsername(ctx, member)
	uc.feed.Publish(events.NewMemberUpdated(in.UserID, member))

	return member, nil
}

// RoomWithMembers is the full load used by room views on mount and resync.
func (uc *roomUsecase) RoomWithMembers(ctx context.Context, roomID uuid.UUID) (*models.Room, []models.Member, error) {
	room, err := uc.roomRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrRoomNotFound
		}
		return nil, nil, fmt.Errorf("lookup room: %w", err)
	}

	members, err := uc.roomRepo.GetActiveMembers(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("load members: %w", err)
	}

	out := make([]models.Member, 0, len(members))
	for _, m := range members {
		if m.Username == "" {
			m.Username = models.AnonymousName
		}
		out = append(out, *m)
	}

	return room, out, nil
}

func (uc *roomUsecase) MemberName(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := uc.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	return user.Username, nil
}

// enrichUsername fills in the display name via a secondary lookup; on failure
// the name stays empty and consumers fall back to a placeholder.
func (uc *roomUsecase) enrichUsername(ctx context.Context, member *models.Member) {
	if member.Username != "" {
		return
	}

	user, err := uc.userRepo.GetUserByID(ctx, member.UserID)
	if err != nil {
		slog.Warn(
			"enrich member username",
			slog.Any(constant.UserID, member.UserID),
			slog.Any(constant.Error, err),
		)
		return
	}

	member.Username = user.Username
}

func generateRoomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}
