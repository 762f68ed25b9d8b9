package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 8 << 10
	sendBuffer     = 256
)

var errMalformedFrame = errors.New("malformed chat frame")

// inbound is the only frame clients may send.
type inbound struct {
	Content *string `json:"content"`
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	groupID string
	userID  string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, groupID, userID string) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		hub:     h,
		conn:    conn,
		groupID: groupID,
		userID:  userID,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
}

// enqueue hands payload to the write pump without blocking. It returns false
// when the frame was dropped.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close sends a close frame with code and tears down the connection. Safe to
// call more than once and from any goroutine.
func (c *Client) close(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.conn.Close()
	})
}

func (c *Client) readPump() {
	code, reason := websocket.CloseNormalClosure, ""
	defer func() {
		if r := recover(); r != nil {
			c.hub.logger.Errorw("chat read loop panic", "group_id", c.groupID, "user_id", c.userID, "panic", r)
			code, reason = websocket.CloseInternalServerErr, "internal error"
		}
		c.hub.unregister(c)
		c.close(code, reason)
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !isExpectedCloseError(err) {
				c.hub.logger.Warnw("chat read error", "group_id", c.groupID, "user_id", c.userID, "error", err)
			}
			return
		}

		content, err := parseFrame(raw)
		if err != nil {
			c.hub.logger.Infow("closing chat connection", "group_id", c.groupID, "user_id", c.userID, "error", err)
			code, reason = websocket.CloseUnsupportedData, "invalid message"
			return
		}

		if _, err := c.hub.Send(c.hub.ctx, c.groupID, c.userID, content); err != nil {
			c.hub.logger.Errorw("chat send failed", "group_id", c.groupID, "user_id", c.userID, "error", err)
			code, reason = websocket.CloseInternalServerErr, "could not deliver message"
			return
		}
	}
}

// writePump drains send into the socket and keeps it alive with pings. A
// failed write ends this connection only: closing the socket makes readPump
// return and unregister the client, and the rest of the group keeps
// receiving. The user reconnects to resume.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !isExpectedCloseError(err) {
					c.hub.logger.Warnw("chat write error, dropping connection", "group_id", c.groupID, "user_id", c.userID, "error", err)
				}
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func parseFrame(raw []byte) (string, error) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return "", fmt.Errorf("%w: %v", errMalformedFrame, err)
	}
	if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		return "", fmt.Errorf("%w: content is required", errMalformedFrame)
	}
	return *in.Content, nil
}

// isExpectedCloseError matches errors that only mean the peer or we already
// closed the connection.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "use of closed network connection") ||
		strings.Contains(s, "broken pipe")
}
