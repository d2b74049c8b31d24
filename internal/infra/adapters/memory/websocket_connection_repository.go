package memory

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/swyde/swyde-backend/internal/application/constant"
)

// WebsocketConnectionRepository tracks the live connection per signed-in user.
// Writes are serialized per connection; gorilla/websocket allows only one
// concurrent writer.
type WebsocketConnectionRepository interface {
	Add(uuid.UUID, *websocket.Conn)
	Remove(uuid.UUID)

	Write(uuid.UUID, any)
}

type safeWS struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

type wsConnectionRepository struct {
	// conns holds map[user_id]*safeWS
	conns map[uuid.UUID]*safeWS

	mu sync.RWMutex
}

func NewWSConnectionRepository() WebsocketConnectionRepository {
	return &wsConnectionRepository{
		conns: make(map[uuid.UUID]*safeWS, 10),
	}
}

func (w *wsConnectionRepository) Add(userID uuid.UUID, conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.conns[userID] = &safeWS{conn: conn}
}

func (w *wsConnectionRepository) Remove(userID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.conns, userID)
}

func (w *wsConnectionRepository) Write(userID uuid.UUID, payload any) {
	sws, ok := w.get(userID)
	if !ok {
		return
	}

	sws.mu.Lock()
	defer sws.mu.Unlock()

	if err := sws.conn.WriteJSON(payload); err != nil {
		slog.Error(
			"write to websocket",
			slog.Any(constant.UserID, userID),
			slog.Any(constant.Error, err),
		)
	}
}

func (w *wsConnectionRepository) get(userID uuid.UUID) (*safeWS, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	conn, ok := w.conns[userID]
	return conn, ok
}
