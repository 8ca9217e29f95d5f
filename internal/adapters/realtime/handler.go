package realtime

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/domain/ports"
	"github.com/kevin07696/mealplan-service/pkg/resourcemgmt"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Handler upgrades an authenticated request and joins the caller's user room.
// Clients only receive; anything they send is discarded.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	userID   func(*http.Request) string
	logger   *zap.Logger
	tracker  *resourcemgmt.Tracker
}

// NewHandler creates the WebSocket endpoint. userID extracts the
// authenticated caller; checkOrigin may be nil to use the gorilla default.
func NewHandler(hub *Hub, userID func(*http.Request) string, checkOrigin func(*http.Request) bool, logger *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024, CheckOrigin: checkOrigin},
		userID:   userID,
		logger:   logger,
	}
}

// WithTracker counts the per-connection pumps in t
func (h *Handler) WithTracker(t *resourcemgmt.Tracker) *Handler {
	h.tracker = t
	return h
}

func (h *Handler) spawn(kind string, fn func()) {
	if h.tracker == nil {
		go fn()
		return
	}
	h.tracker.Go(kind, fn)
}

// Serve handles GET /ws
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := h.userID(r)
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(ports.UserRoom(userID))
	if err := h.hub.Join(r.Context(), client); err != nil {
		_ = conn.Close()
		return
	}

	h.spawn("ws_write", func() { writePump(conn, client) })
	h.spawn("ws_read", func() { readPump(conn, h.hub, client) })
}

func writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(conn *websocket.Conn, hub *Hub, c *Client) {
	defer func() {
		hub.Leave(c)
		_ = conn.Close()
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
