// Package chat keeps the live websocket connections of each travel group
// and fans chat messages out to them.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"travelmate/internal/domain/messages"
	"travelmate/internal/domain/storage"
	"travelmate/internal/domain/users"
)

// HistoryLimit caps the messages returned for a group.
const HistoryLimit = 1000

var ErrShuttingDown = errors.New("chat hub is shutting down")

// Hub is the registry of live connections, keyed by group then user. One
// connection per (group, user); a newer one replaces the older.
type Hub struct {
	mu       sync.RWMutex
	groups   map[string]map[string]*Client
	closing  bool
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
	users    users.Store
	messages messages.Store

	pubMu      sync.Mutex
	publishers map[string]*publisher

	now   func() time.Time
	newID func() string
}

func NewHub(store *storage.Container, logger *zap.SugaredLogger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		groups:     make(map[string]map[string]*Client),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		users:      store.Users,
		messages:   store.Messages,
		publishers: make(map[string]*publisher),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// publisher serializes persist+broadcast within one group so its members
// see messages in the order they were stored. Groups publish independently.
type publisher struct {
	mu   sync.Mutex
	last time.Time
}

func (h *Hub) publisherFor(groupID string) *publisher {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	p, ok := h.publishers[groupID]
	if !ok {
		p = &publisher{}
		h.publishers[groupID] = p
	}
	return p
}

// Connect registers conn for userID in groupID and starts its pumps. The
// caller must already have checked the token and group membership.
func (h *Hub) Connect(groupID, userID string, conn *websocket.Conn) (*Client, error) {
	c := newClient(h, conn, groupID, userID)

	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		c.close(websocket.CloseGoingAway, "server shutting down")
		return nil, ErrShuttingDown
	}
	bucket, ok := h.groups[groupID]
	if !ok {
		bucket = make(map[string]*Client)
		h.groups[groupID] = bucket
	}
	old := bucket[userID]
	bucket[userID] = c
	h.wg.Add(2)
	h.mu.Unlock()

	if old != nil {
		old.close(websocket.ClosePolicyViolation, "replaced by a newer connection")
	}

	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump()
	}()

	h.logger.Infow("chat client connected", "group_id", groupID, "user_id", userID)
	return c, nil
}

// Disconnect closes and forgets the connection of userID in groupID, if any.
func (h *Hub) Disconnect(groupID, userID string) {
	h.mu.Lock()
	c := h.groups[groupID][userID]
	if c != nil {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	if c != nil {
		c.close(websocket.CloseNormalClosure, "")
	}
}

// unregister drops c from the registry unless a newer connection already
// took its place.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[c.groupID][c.userID] == c {
		h.removeLocked(c)
	}
}

func (h *Hub) removeLocked(c *Client) {
	bucket := h.groups[c.groupID]
	delete(bucket, c.userID)
	if len(bucket) == 0 {
		delete(h.groups, c.groupID)
	}
	h.logger.Infow("chat client disconnected", "group_id", c.groupID, "user_id", c.userID)
}

// Send stores a message from userID and broadcasts it to every connection
// of the group, the sender's own included.
func (h *Hub) Send(ctx context.Context, groupID, userID, content string) (*messages.Message, error) {
	sender, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load sender %s: %w", userID, err)
	}

	pub := h.publisherFor(groupID)
	pub.mu.Lock()
	defer pub.mu.Unlock()

	msg := &messages.Message{
		ID:         h.newID(),
		GroupID:    groupID,
		SenderID:   userID,
		SenderName: sender.Name,
		Content:    content,
		CreatedAt:  pub.nextStamp(h.now()),
	}
	if err := h.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	h.broadcast(groupID, payload)
	return msg, nil
}

// nextStamp returns a millisecond timestamp strictly after the group's
// previous one, so creation time alone orders its history. Callers hold p.mu.
func (p *publisher) nextStamp(now time.Time) time.Time {
	stamp := now.UTC().Truncate(time.Millisecond)
	if !stamp.After(p.last) {
		stamp = p.last.Add(time.Millisecond)
	}
	p.last = stamp
	return stamp
}

func (h *Hub) broadcast(groupID string, payload []byte) {
	for _, c := range h.snapshot(groupID) {
		if !c.enqueue(payload) {
			h.logger.Warnw("chat send buffer full, dropping message", "group_id", groupID, "user_id", c.userID)
		}
	}
}

func (h *Hub) snapshot(groupID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.groups[groupID]))
	for _, c := range h.groups[groupID] {
		clients = append(clients, c)
	}
	return clients
}

// History returns a group's messages, oldest first.
func (h *Hub) History(ctx context.Context, groupID string) ([]*messages.Message, error) {
	return h.messages.ListByGroup(ctx, groupID, HistoryLimit)
}

// Count returns the number of live connections across all groups.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, bucket := range h.groups {
		n += len(bucket)
	}
	return n
}

// Connected reports whether userID currently has a connection in groupID.
func (h *Hub) Connected(groupID, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.groups[groupID][userID]
	return ok
}

// Shutdown closes every connection and waits for their pumps to exit.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	var clients []*Client
	for _, bucket := range h.groups {
		for _, c := range bucket {
			clients = append(clients, c)
		}
	}
	h.groups = make(map[string]map[string]*Client)
	h.mu.Unlock()

	h.cancel()
	for _, c := range clients {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
	h.logger.Infow("closed chat connections", "count", len(clients))

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reject completes a refused handshake by closing conn with a policy
// violation.
func Reject(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}
