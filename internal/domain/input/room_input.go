package input

import "github.com/google/uuid"

type JoinRoomInput struct {
	UserID uuid.UUID `json:"user_id"`
	Code   string    `json:"code"`
}

type LeaveRoomInput struct {
	UserID uuid.UUID `json:"user_id"`
	RoomID uuid.UUID `json:"room_id"`
}

type SetReadyInput struct {
	UserID  uuid.UUID `json:"user_id"`
	RoomID  uuid.UUID `json:"room_id"`
	IsReady bool      `json:"is_ready"`
}
