package realtimesvc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func connect(t *testing.T, hub *Hub, studentID uuid.UUID) *Connection {
	t.Helper()
	conn := &Connection{StudentID: studentID, Send: make(chan []byte, 8)}
	hub.Register(conn)
	waitOnline(t, hub, studentID)
	return conn
}

func waitOnline(t *testing.T, hub *Hub, studentID uuid.UUID) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !hub.Online(studentID) {
		if time.Now().After(deadline) {
			t.Fatal("student never came online")
		}
		time.Sleep(time.Millisecond)
	}
}

func receive(t *testing.T, conn *Connection) Message {
	t.Helper()
	select {
	case data := <-conn.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return Message{}
	}
}

func TestHub_onlinePresence(t *testing.T) {
	hub := NewHub(nopLogger{})
	studentID := uuid.New()

	assert.False(t, hub.Online(studentID))

	conn := connect(t, hub, studentID)
	assert.True(t, hub.Online(studentID))

	hub.Unregister(conn)
	deadline := time.Now().Add(time.Second)
	for hub.Online(studentID) {
		if time.Now().After(deadline) {
			t.Fatal("student never went offline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHub_emitFeedbackReachesEveryConnection(t *testing.T) {
	hub := NewHub(nopLogger{})
	studentID := uuid.New()

	// two tabs, both get the message
	tab1 := connect(t, hub, studentID)
	tab2 := connect(t, hub, studentID)
	elementID := uuid.New()

	require.NoError(t, hub.EmitFeedback(context.Background(), studentID, elementID, json.RawMessage(`"nice"`)))

	for _, conn := range []*Connection{tab1, tab2} {
		msg := receive(t, conn)
		assert.Equal(t, MsgFeedback, msg.Type)

		var payload feedbackPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, studentID, payload.StudentID)
		assert.Equal(t, elementID, payload.ElementID)
		assert.JSONEq(t, `"nice"`, string(payload.Value))
	}
}

func TestHub_emitFeedbackDoesNotReachOtherStudents(t *testing.T) {
	hub := NewHub(nopLogger{})
	mine, theirs := uuid.New(), uuid.New()

	connect(t, hub, mine)
	otherConn := connect(t, hub, theirs)

	require.NoError(t, hub.EmitFeedback(context.Background(), mine, uuid.New(), json.RawMessage("1")))

	select {
	case <-otherConn.Send:
		t.Fatal("message leaked to another student")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_emitProgress(t *testing.T) {
	hub := NewHub(nopLogger{})
	studentID := uuid.New()
	conn := connect(t, hub, studentID)

	require.NoError(t, hub.EmitProgress(context.Background(), studentID, json.RawMessage(`{"value":0.5}`)))

	msg := receive(t, conn)
	assert.Equal(t, MsgProgressUpdate, msg.Type)
	assert.JSONEq(t, `{"value":0.5}`, string(msg.Payload))
}
