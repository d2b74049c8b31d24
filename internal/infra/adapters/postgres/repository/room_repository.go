package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/swyde/swyde-backend/internal/domain/models"
)

type RoomRepository interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoomByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	GetActiveRoomByCode(ctx context.Context, code string) (*models.Room, error)
	DeactivateRoom(ctx context.Context, id uuid.UUID) error

	UpsertMember(ctx context.Context, roomID, userID uuid.UUID) (*models.Member, bool, error)
	DeactivateMember(ctx context.Context, roomID, userID uuid.UUID) (*models.Member, error)
	SetMemberReady(ctx context.Context, roomID, userID uuid.UUID, ready bool) (*models.Member, error)
	GetActiveMembers(ctx context.Context, roomID uuid.UUID) ([]*models.Member, error)
}

type roomRepo struct {
	db *sqlx.DB
}

func NewRoomRepo(db *sqlx.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) CreateRoom(ctx context.Context, room *models.Room) error {
	_, err := r.db.ExecContext(
		ctx,
		"INSERT INTO rooms (id, code, host_id, is_active) VALUES ($1, $2, $3, $4)",
		room.ID,
		room.Code,
		room.HostID,
		room.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeConflict
		}
		return fmt.Errorf("create room: %w", err)
	}

	return nil
}

func (r *roomRepo) GetRoomByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room

	err := r.db.GetContext(ctx, &room, "SELECT * FROM rooms WHERE id = $1", id)
	if err != nil {
		return nil, mapNoRows(err)
	}

	return &room, nil
}

func (r *roomRepo) GetActiveRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room

	err := r.db.GetContext(
		ctx,
		&room,
		"SELECT * FROM rooms WHERE code = $1 AND is_active = true",
		code,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}

	return &room, nil
}

func (r *roomRepo) DeactivateRoom(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "UPDATE rooms SET is_active = false WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deactivate room: %w", err)
	}

	return nil
}

// UpsertMember creates or reactivates the (room, user) membership row. The
// returned flag is true when a new row was inserted rather than updated.
func (r *roomRepo) UpsertMember(ctx context.Context, roomID, userID uuid.UUID) (*models.Member, bool, error) {
	var row struct {
		models.Member
		Inserted bool `db:"inserted"`
	}

	query := `
		INSERT INTO room_members (room_id, user_id, is_ready, is_active)
		VALUES ($1, $2, false, true)
		ON CONFLICT (room_id, user_id)
		DO UPDATE SET is_ready = false, is_active = true, left_at = NULL
		RETURNING id, room_id, user_id, '' AS username, is_ready, is_active, joined_at, left_at,
			(xmax = 0) AS inserted
	`

	err := r.db.GetContext(ctx, &row, query, roomID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("upsert member: %w", err)
	}

	return &row.Member, row.Inserted, nil
}

func (r *roomRepo) DeactivateMember(ctx context.Context, roomID, userID uuid.UUID) (*models.Member, error) {
	var member models.Member

	query := `
		UPDATE room_members
		SET is_active = false, left_at = now()
		WHERE room_id = $1 AND user_id = $2
		RETURNING id, room_id, user_id, '' AS username, is_ready, is_active, joined_at, left_at
	`

	err := r.db.GetContext(ctx, &member, query, roomID, userID)
	if err != nil {
		return nil, mapNoRows(err)
	}

	return &member, nil
}

func (r *roomRepo) SetMemberReady(ctx context.Context, roomID, userID uuid.UUID, ready bool) (*models.Member, error) {
	var member models.Member

	query := `
		UPDATE room_members
		SET is_ready = $3
		WHERE room_id = $1 AND user_id = $2 AND is_active = true
		RETURNING id, room_id, user_id, '' AS username, is_ready, is_active, joined_at, left_at
	`

	err := r.db.GetContext(ctx, &member, query, roomID, userID, ready)
	if err != nil {
		return nil, mapNoRows(err)
	}

	return &member, nil
}

// GetActiveMembers returns the current membership list enriched with usernames.
func (r *roomRepo) GetActiveMembers(ctx context.Context, roomID uuid.UUID) ([]*models.Member, error) {
	var members []*models.Member

	query := `
		SELECT m.id, m.room_id, m.user_id, COALESCE(u.username, '') AS username,
			m.is_ready, m.is_active, m.joined_at, m.left_at
		FROM room_members m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1 AND m.is_active = true
		ORDER BY m.joined_at
	`

	err := r.db.SelectContext(ctx, &members, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("get active members: %w", err)
	}

	return members, nil
}
