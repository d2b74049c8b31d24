package models

import (
	"time"

	"github.com/google/uuid"
)

// Room is a shared swiping session joinable by a short human-readable code.
// Rooms are deactivated, never deleted.
type Room struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	HostID    uuid.UUID `json:"host_id" db:"host_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func NewRoom(code string, hostID uuid.UUID) *Room {
	return &Room{
		ID:        uuid.New(),
		Code:      code,
		HostID:    hostID,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
}
