package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/student-portal/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const streamWriteTimeout = 10 * time.Second

// StreamMessage is exchanged over the notification stream.
// The server sends "snapshot" and "error"; clients send "read" and "refresh".
type StreamMessage struct {
	Type          string                 `json:"type"`
	ID            string                 `json:"id,omitempty"`
	Notifications []*models.Notification `json:"notifications,omitempty"`
	Unread        int                    `json:"unread"`
	Error         string                 `json:"error,omitempty"`
}

// streamConn serializes writes; gorilla connections allow one writer at a time
type streamConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *streamConn) send(msg StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal stream message", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send stream message", "error", err)
		return err
	}
	return nil
}

func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	studentID := StudentFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("notification stream connected", "student", studentID)

	sc := &streamConn{conn: conn}

	// The request context ends once the handler hijacks the connection
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.sendSnapshot(ctx, sc, studentID); err != nil {
		return
	}

	var wg sync.WaitGroup

	// Periodic snapshots
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		ticker := time.NewTicker(s.streamInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.sendSnapshot(ctx, sc, studentID); err != nil {
					return
				}
			}
		}
	}()

	// Client commands
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}

			var msg StreamMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				slog.Debug("invalid stream message", "error", err)
				continue
			}

			switch msg.Type {
			case "read":
				if err := s.markRead(ctx, studentID, msg.ID); err != nil {
					text := "failed to mark notification read"
					if errors.Is(err, errNotificationNotFound) {
						text = "notification not found"
					} else {
						slog.Error("failed to mark notification read", "error", err, "student", studentID, "id", msg.ID)
					}
					if sc.send(StreamMessage{Type: "error", ID: msg.ID, Error: text}) != nil {
						return
					}
					continue
				}
				if err := s.sendSnapshot(ctx, sc, studentID); err != nil {
					return
				}
			case "refresh":
				if err := s.sendSnapshot(ctx, sc, studentID); err != nil {
					return
				}
			}
		}
	}()

	// Unblock the reader once the ticker side fails
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	wg.Wait()
	slog.Info("notification stream disconnected", "student", studentID)
}

func (s *Server) sendSnapshot(ctx context.Context, sc *streamConn, studentID string) error {
	notifications, unread, err := s.notifications(ctx, studentID)
	if err != nil {
		slog.Error("failed to load notifications for stream", "error", err, "student", studentID)
		return sc.send(StreamMessage{Type: "error", Error: "failed to load notifications"})
	}

	return sc.send(StreamMessage{
		Type:          "snapshot",
		Notifications: notifications,
		Unread:        unread,
	})
}
