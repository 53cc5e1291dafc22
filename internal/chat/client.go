package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/webchat/internal/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

var (
	// errDisconnected ends a session's errgroup when the widget goes away.
	errDisconnected = errors.New("widget disconnected")

	// errSlowClient is returned by Send when the widget does not keep up.
	errSlowClient = errors.New("widget send buffer full")
)

// Client is the websocket connection of one widget.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	log  *logger.Logger
}

// NewClient wraps conn.
func NewClient(conn *websocket.Conn, log *logger.Logger) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, 256),
		log:  log,
	}
}

// Send queues f for the write pump without blocking. A full buffer
// returns errSlowClient.
func (c *Client) Send(ctx context.Context, f OutFrame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSlowClient
	}
}

// ReadPump decodes frames from the connection and hands them to handle.
// It always returns a non-nil error so the session winds down.
func (c *Client) ReadPump(ctx context.Context, handle func(InFrame)) error {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read error", zap.Error(err))
			}
			return errDisconnected
		}
		if ctx.Err() != nil {
			return errDisconnected
		}

		var f InFrame
		if err := json.Unmarshal(message, &f); err != nil {
			c.log.Debug("invalid frame", zap.Error(err))
			c.Send(ctx, OutFrame{Type: FrameError, Error: "invalid message format"})
			continue
		}
		handle(f)
	}
}

// WritePump writes queued frames and keeps the connection alive with
// pings. It closes the connection when ctx ends.
func (c *Client) WritePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return errDisconnected
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return errDisconnected
			}
		}
	}
}
