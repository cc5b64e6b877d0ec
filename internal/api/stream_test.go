package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, s *Server, query string) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/widgets/notifications/stream" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readStream(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestNotificationStream_Snapshot(t *testing.T) {
	s := newTestServer(t, Dependencies{StreamInterval: time.Hour})
	conn := dialStream(t, s, "?student_id=s-7")

	msg := readStream(t, conn)
	assert.Equal(t, "snapshot", msg.Type)
	assert.Len(t, msg.Notifications, 3)
	assert.Equal(t, 3, msg.Unread)
}

func TestNotificationStream_MarkRead(t *testing.T) {
	s := newTestServer(t, Dependencies{StreamInterval: time.Hour})
	conn := dialStream(t, s, "?student_id=s-8")

	readStream(t, conn)

	require.NoError(t, conn.WriteJSON(StreamMessage{Type: "read", ID: "nt-3"}))
	msg := readStream(t, conn)
	assert.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, 2, msg.Unread)

	require.NoError(t, conn.WriteJSON(StreamMessage{Type: "read", ID: "missing"}))
	msg = readStream(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "missing", msg.ID)
	assert.Equal(t, "notification not found", msg.Error)
}

func TestNotificationStream_Periodic(t *testing.T) {
	s := newTestServer(t, Dependencies{StreamInterval: 20 * time.Millisecond})
	conn := dialStream(t, s, "")

	first := readStream(t, conn)
	second := readStream(t, conn)
	assert.Equal(t, "snapshot", first.Type)
	assert.Equal(t, "snapshot", second.Type)
}
