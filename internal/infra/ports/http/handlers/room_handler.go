package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/swyde/swyde-backend/internal/application/constant"
	"github.com/swyde/swyde-backend/internal/domain/input"
	"github.com/swyde/swyde-backend/internal/infra/appctx"
	"github.com/swyde/swyde-backend/internal/infra/ports/http/dto"
	"github.com/swyde/swyde-backend/internal/usecase"
)

type RoomHandler struct {
	roomUsecase usecase.RoomUsecase
}

func NewRoomHandler(roomUsecase usecase.RoomUsecase) *RoomHandler {
	return &RoomHandler{roomUsecase: roomUsecase}
}

func (h *RoomHandler) CreateRoomHandler(c echo.Context) error {
	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid user"})
	}

	room, err := h.roomUsecase.CreateRoom(c.Request().Context(), userID)
	if err != nil {
		slog.Error("create room", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create room"})
	}

	return c.JSON(http.StatusCreated, dto.NewRoomResponseFromModel(room))
}

func (h *RoomHandler) JoinRoomHandler(c echo.Context) error {
	var req dto.JoinRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "code is required"})
	}

	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid user"})
	}

	room, _, err := h.roomUsecase.JoinRoom(c.Request().Context(), &input.JoinRoomInput{
		UserID: userID,
		Code:   req.Code,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "room not found or inactive"})
		}

		slog.Error("join room", slog.String(constant.RoomCode, req.Code), slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to join room"})
	}

	return c.JSON(http.StatusOK, dto.NewRoomResponseFromModel(room))
}

func (h *RoomHandler) LeaveRoomHandler(c echo.Context) error {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid room id"})
	}

	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid user"})
	}

	if err := h.roomUsecase.LeaveRoom(c.Request().Context(), &input.LeaveRoomInput{
		UserID: userID,
		RoomID: roomID,
	}); err != nil {
		if errors.Is(err, usecase.ErrNotMember) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not a member of this room"})
		}

		slog.Error("leave room", slog.Any(constant.RoomID, roomID), slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to leave room"})
	}

	return c.NoContent(http.StatusOK)
}

func (h *RoomHandler) SetReadyHandler(c echo.Context) error {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid room id"})
	}

	var req dto.SetReadyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid user"})
	}

	member, err := h.roomUsecase.SetReady(c.Request().Context(), &input.SetReadyInput{
		UserID:  userID,
		RoomID:  roomID,
		IsReady: req.IsReady,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrNotMember) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not a member of this room"})
		}

		slog.Error("set ready", slog.Any(constant.RoomID, roomID), slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update readiness"})
	}

	return c.JSON(http.StatusOK, dto.NewMemberResponseFromModel(member))
}

func (h *RoomHandler) GetRoomHandler(c echo.Context) error {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid room id"})
	}

	room, members, err := h.roomUsecase.RoomWithMembers(c.Request().Context(), roomID)
	if err != nil {
		if errors.Is(err, usecase.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "room not found or inactive"})
		}

		slog.Error("get room", slog.Any(constant.RoomID, roomID), slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get room"})
	}

	return c.JSON(http.StatusOK, dto.NewRoomWithMembersResponse(room, members))
}
