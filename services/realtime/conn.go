package realtimesvc

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are vetted upstream by the SSO gateway
	},
}

// Connection represents one student websocket connection.
type Connection struct {
	StudentID uuid.UUID
	Send      chan []byte
}

// Serve upgrades the request and runs the connection pumps until the client
// goes away. The caller must have authenticated studentID already.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, studentID uuid.UUID) error {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	conn := &Connection{
		StudentID: studentID,
		Send:      make(chan []byte, 256),
	}
	h.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
	return nil
}

func (h *Hub) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.Unregister(conn)
		_ = wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// inbound traffic is ignored; the socket is push-only
	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn(fmt.Sprintf("websocket read: %v", err))
			}
			return
		}
	}
}

func (h *Hub) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			_ = wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := wsConn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
