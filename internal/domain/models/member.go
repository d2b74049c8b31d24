package models

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousName is shown when a member's profile lookup fails or is missing.
const AnonymousName = "Anonymous"

// Member is one user's membership in a room. A user has at most one
// membership row per room; re-joining updates the existing row.
type Member struct {
	ID       uuid.UUID `json:"id" db:"id"`
	RoomID   uuid.UUID `json:"room_id" db:"room_id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	Username string    `json:"username" db:"username"`
	IsReady  bool      `json:"is_ready" db:"is_ready"`
	IsActive bool      `json:"is_active" db:"is_active"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`

	// LeftAt is set once on departure and kept for the audit trail.
	LeftAt *time.Time `json:"left_at,omitempty" db:"left_at"`
}

func (m *Member) DisplayName() string {
	if m.Username == "" {
		return AnonymousName
	}
	return m.Username
}
