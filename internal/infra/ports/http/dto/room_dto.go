package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/swyde/swyde-backend/internal/domain/models"
)

type JoinRoomRequest struct {
	Code string `json:"code"`
}

type SetReadyRequest struct {
	IsReady bool `json:"is_ready"`
}

type RoomResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	HostID    uuid.UUID `json:"host_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberResponse struct {
	UserID   uuid.UUID  `json:"user_id"`
	Username string     `json:"username"`
	IsReady  bool       `json:"is_ready"`
	IsActive bool       `json:"is_active"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
}

type RoomWithMembersResponse struct {
	Room    RoomResponse     `json:"room"`
	Members []MemberResponse `json:"members"`
}

func NewRoomResponseFromModel(room *models.Room) RoomResponse {
	return RoomResponse{
		ID:        room.ID,
		Code:      room.Code,
		HostID:    room.HostID,
		IsActive:  room.IsActive,
		CreatedAt: room.CreatedAt,
	}
}

func NewMemberResponseFromModel(member *models.Member) MemberResponse {
	return MemberResponse{
		UserID:   member.UserID,
		Username: member.DisplayName(),
		IsReady:  member.IsReady,
		IsActive: member.IsActive,
		JoinedAt: member.JoinedAt,
		LeftAt:   member.LeftAt,
	}
}

func NewRoomWithMembersResponse(room *models.Room, members []models.Member) RoomWithMembersResponse {
	resp := RoomWithMembersResponse{
		Room:    NewRoomResponseFromModel(room),
		Members: make([]MemberResponse, 0, len(members)),
	}

	for i := range members {
		resp.Members = append(resp.Members, NewMemberResponseFromModel(&members[i]))
	}

	return resp
}
