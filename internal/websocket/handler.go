package websocket

import (
	"context"
	"errors"
	"time"

	"linkchat-be/internal/chat"
	"linkchat-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

// ServeConnection runs one websocket connection for its whole lifetime.
// The very first frame must be a handshake naming the room and proving
// membership; everything after it is dispatched into the room session.
// Any failure before admission closes the socket without a reply.
func ServeConnection(conn *websocket.Conn, registry *chat.Registry, handshakeTimeout time.Duration, log logger.ILogger) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	_, raw, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}
	frame, err := chat.DecodeFrame(raw)
	if err != nil {
		conn.Close()
		return
	}
	hs, ok := frame.(*chat.HandshakeFrame)
	if !ok {
		conn.Close()
		return
	}

	client := newClient(conn)
	go client.writePump()

	session, err := admit(client, registry, hs)
	if err != nil {
		// Connect already closed the transport; nothing is revealed about
		// why admission failed.
		client.Close()
		return
	}
	defer func() {
		session.Disconnect(hs.UserId, client)
		client.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket", "Connection ended abnormally", map[string]interface{}{"room_id": hs.ChatId, "error": err.Error()})
			}
			return
		}
		session.Dispatch(hs.UserId, raw)
	}
}

// admit resolves the room session and connects the client. A session that
// closes between resolve and connect is retried once; the second resolve
// opens a fresh session from the store.
func admit(client *Client, registry *chat.Registry, hs *chat.HandshakeFrame) (*chat.Session, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		session, err := registry.ResolveOrOpen(ctx, hs.ChatId)
		cancel()
		if err != nil {
			return nil, err
		}
		err = session.Connect(client, hs.UserId, hs.Hash, hs.Time)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, chat.ErrSessionClosed) {
			return nil, err
		}
	}
	return nil, chat.ErrSessionClosed
}
