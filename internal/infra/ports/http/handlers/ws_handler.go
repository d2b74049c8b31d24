package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/swyde/swyde-backend/internal/application/config"
	"github.com/swyde/swyde-backend/internal/application/constant"
	"github.com/swyde/swyde-backend/internal/application/metric"
	"github.com/swyde/swyde-backend/internal/domain/events"
	"github.com/swyde/swyde-backend/internal/domain/input"
	"github.com/swyde/swyde-backend/internal/domain/models"
	"github.com/swyde/swyde-backend/internal/infra/adapters/memory"
	"github.com/swyde/swyde-backend/internal/infra/appctx"
	"github.com/swyde/swyde-backend/internal/realtime"
	"github.com/swyde/swyde-backend/internal/roomview"
	"github.com/swyde/swyde-backend/internal/usecase"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// wireEnvelope is the outbound websocket frame.
type wireEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	cfg         *config.Config
	roomUsecase usecase.RoomUsecase
	feed        *realtime.Feed
	connRepo    memory.WebsocketConnectionRepository
}

func NewWebSocketHandler(
	cfg *config.Config,
	roomUsecase usecase.RoomUsecase,
	feed *realtime.Feed,
	connRepo memory.WebsocketConnectionRepository,
) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		cfg:         cfg,
		roomUsecase: roomUsecase,
		feed:        feed,
		connRepo:    connRepo,
	}
}

// Handle runs one room-view session: subscribe to the room's change feed,
// reconcile through a roomview.View, push every update to the client, and
// read readiness/leave messages off the same connection. Navigation away
// (the connection closing) tears down the subscription.
func (h *WebSocketHandler) Handle(c echo.Context) error {
	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid user"})
	}

	roomID, err := uuid.Parse(c.QueryParam("room_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid room id"})
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"WebSocket upgrade error",
			slog.Any(constant.Error, err),
		)
		return err
	}
	defer ws.Close()

	metric.IncrementWSActiveConnections()
	defer metric.DecrementWSActiveConnections()

	h.connRepo.Add(userID, ws)
	defer h.connRepo.Remove(userID)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	sub := h.feed.Subscribe(roomID)
	defer sub.Cancel()

	view, err := roomview.New(roomview.Config{
		ViewerID: userID,
		RoomID:   roomID,
		Load: func(ctx context.Context) (*models.Room, []models.Member, error) {
			return h.roomUsecase.RoomWithMembers(ctx, roomID)
		},
		Events: sub.Events(),
		SendBeacon: func() {
			h.feed.Publish(events.NewBeacon(userID, roomID))
		},
		BeaconInterval: h.cfg.BeaconInterval,
		ResolveName:    h.roomUsecase.MemberName,
	})
	if err != nil {
		return fmt.Errorf("create room view: %w", err)
	}

	updatesDone := make(chan struct{})
	go func() {
		defer close(updatesDone)
		for update := range view.Updates() {
			h.connRepo.Write(userID, wireEnvelope{Type: "room_update", Data: update})
		}
	}()

	go func() {
		runErr := view.Run(ctx)
		<-updatesDone

		if runErr != nil {
			// Terminal for this view: report and route the client out.
			slog.Warn(
				"room view failed",
				slog.Any(constant.RoomID, roomID),
				slog.Any(constant.Error, runErr),
			)
			h.connRepo.Write(userID, wireEnvelope{
				Type: "error",
				Data: map[string]string{"error": "room not found or inactive"},
			})
		}

		// Unblocks the read loop once the view is finished.
		ws.Close()
	}()

	if err = ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			_, msg, err := ws.ReadMessage()
			if err != nil {
				return nil
			}

			if err = h.handleMessage(ctx, userID, roomID, msg); err != nil {
				if errors.Is(err, errSessionClosed) {
					return nil
				}
				slog.Error("handle message", slog.Any(constant.Error, err))
			}
		}
	}
}

var errSessionClosed = errors.New("session closed")

func (h *WebSocketHandler) handleMessage(ctx context.Context, userID, roomID uuid.UUID, msg []byte) error {
	var envelope events.Message
	if err := json.Unmarshal(msg, &envelope); err != nil {
		return fmt.Errorf("unmarshal websocket message: %w", err)
	}

	switch envelope.Type {
	case "ready":
		var ready events.ReadyEvent
		if err := json.Unmarshal(envelope.Data, &ready); err != nil {
			return fmt.Errorf("unmarshal ready event: %w", err)
		}

		if _, err := h.roomUsecase.SetReady(ctx, &input.SetReadyInput{
			UserID:  userID,
			RoomID:  roomID,
			IsReady: ready.IsReady,
		}); err != nil {
			return fmt.Errorf("handle ready: %w", err)
		}

	case "leave":
		if err := h.roomUsecase.LeaveRoom(ctx, &input.LeaveRoomInput{UserID: userID, RoomID: roomID}); err != nil {
			return fmt.Errorf("handle leave: %w", err)
		}
		return errSessionClosed

	case "ping":
		h.connRepo.Write(userID, wireEnvelope{Type: "pong"})

	default:
		return fmt.Errorf("unknown message type %q", envelope.Type)
	}

	return nil
}
