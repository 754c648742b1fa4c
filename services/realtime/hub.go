package realtimesvc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/eval"
)

// MessageType defines the type of realtime message pushed to a student.
type MessageType string

const (
	MsgFeedback       MessageType = "feedback"
	MsgProgressUpdate MessageType = "progress_update"
)

// Message is the realtime envelope format.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type feedbackPayload struct {
	StudentID uuid.UUID       `json:"studentId"`
	ElementID uuid.UUID       `json:"elementId"`
	Value     json.RawMessage `json:"value"`
}

// Hub tracks the websocket connections of online students. A student may
// hold several connections (tabs, devices); every one gets each message.
type Hub struct {
	logger core.Logger

	mu    sync.RWMutex
	conns map[uuid.UUID]map[*Connection]struct{}

	register   chan *Connection
	unregister chan *Connection
	send       chan *studentMessage
}

type studentMessage struct {
	studentID uuid.UUID
	data      []byte
}

var _ eval.FeedbackEmitter = (*Hub)(nil)

func NewHub(logger core.Logger) *Hub {
	h := &Hub{
		logger:     logger,
		conns:      make(map[uuid.UUID]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		send:       make(chan *studentMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.StudentID] == nil {
				h.conns[conn.StudentID] = make(map[*Connection]struct{})
			}
			h.conns[conn.StudentID][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug(fmt.Sprintf("student %s connected", conn.StudentID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.conns[conn.StudentID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.conns, conn.StudentID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug(fmt.Sprintf("student %s disconnected", conn.StudentID))

		case msg := <-h.send:
			h.mu.RLock()
			for conn := range h.conns[msg.studentID] {
				select {
				case conn.Send <- msg.data:
				default:
					// drop when the connection buffer is full
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Online reports whether the student has at least one live connection.
func (h *Hub) Online(studentID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[studentID]) > 0
}

// EmitFeedback pushes resolved feedback to the student's connections.
func (h *Hub) EmitFeedback(ctx context.Context, studentID, elementID uuid.UUID, value json.RawMessage) error {
	payload, err := json.Marshal(feedbackPayload{StudentID: studentID, ElementID: elementID, Value: value})
	if err != nil {
		return err
	}
	return h.push(ctx, studentID, Message{Type: MsgFeedback, Payload: payload})
}

// EmitProgress pushes a progress summary to the student's connections.
func (h *Hub) EmitProgress(ctx context.Context, studentID uuid.UUID, payload json.RawMessage) error {
	return h.push(ctx, studentID, Message{Type: MsgProgressUpdate, Payload: payload})
}

func (h *Hub) push(ctx context.Context, studentID uuid.UUID, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case h.send <- &studentMessage{studentID: studentID, data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
