package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/gestureos/internal/gesture"
)

const (
	feedSendBuffer = 32
	feedWriteWait  = 5 * time.Second
	feedPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FeedEvent is the JSON frame pushed to feed subscribers.
type FeedEvent struct {
	Type   string `json:"type"`
	Key    string `json:"key"`
	Hand   string `json:"hand,omitempty"`
	Sign   string `json:"sign,omitempty"`
	Count  int    `json:"count,omitempty"`
	Target int    `json:"target,omitempty"`
	Ts     int64  `json:"ts"`
}

// Feed event types.
const (
	FeedGesture      = "gesture"
	FeedHold         = "hold"
	FeedHoldComplete = "hold-complete"
)

type feedClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Feed fans dispatched gestures out to websocket subscribers. Clients that
// cannot keep up with their send buffer are disconnected.
type Feed struct {
	logger *zap.SugaredLogger
	now    func() time.Time

	mu      sync.Mutex
	clients map[*feedClient]struct{}
	closed  bool
}

// NewFeed creates an empty feed.
func NewFeed(logger *zap.SugaredLogger) *Feed {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Feed{
		logger:  logger,
		now:     time.Now,
		clients: make(map[*feedClient]struct{}),
	}
}

// Clients returns the number of connected subscribers.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// GestureDispatched publishes a gesture frame for id.
func (f *Feed) GestureDispatched(id gesture.Identity) {
	f.publish(f.event(FeedGesture, id))
}

// HoldProgress publishes the running count of a held gesture.
func (f *Feed) HoldProgress(id gesture.Identity, count, target int) {
	ev := f.event(FeedHold, id)
	ev.Count = count
	ev.Target = target
	f.publish(ev)
}

// HoldComplete publishes a frame when a hold binding reaches its target.
func (f *Feed) HoldComplete(id gesture.Identity, target int) {
	ev := f.event(FeedHoldComplete, id)
	ev.Count = target
	ev.Target = target
	f.publish(ev)
}

func (f *Feed) event(typ string, id gesture.Identity) FeedEvent {
	return FeedEvent{
		Type: typ,
		Key:  id.Key(),
		Hand: id.Hand.String(),
		Sign: id.Sign.String(),
		Ts:   f.now().UnixMilli(),
	}
}

func (f *Feed) publish(ev FeedEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		f.logger.Errorw("failed to encode feed event", "type", ev.Type, "error", err)
		return
	}

	var slow []*feedClient
	f.mu.Lock()
	for c := range f.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	f.mu.Unlock()

	for _, c := range slow {
		f.remove(c, "slow_client")
	}
}

// ServeHTTP upgrades the request and streams feed events until the client
// disconnects.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warnw("feed websocket upgrade failed", "error", err)
		return
	}

	c := &feedClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, feedSendBuffer),
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		conn.Close()
		return
	}
	f.clients[c] = struct{}{}
	n := len(f.clients)
	f.mu.Unlock()
	f.logger.Debugw("feed client connected", "client", c.id, "remote_addr", r.RemoteAddr, "clients", n)

	go f.writePump(c)

	// Inbound frames are ignored; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	f.remove(c, "closed")
}

func (f *Feed) writePump(c *feedClient) {
	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				f.remove(c, "write_error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				f.remove(c, "ping_error")
				return
			}
		}
	}
}

func (f *Feed) remove(c *feedClient, reason string) {
	f.mu.Lock()
	_, ok := f.clients[c]
	if ok {
		delete(f.clients, c)
		close(c.send)
	}
	n := len(f.clients)
	f.mu.Unlock()

	if ok {
		c.conn.Close()
		f.logger.Debugw("feed client disconnected", "client", c.id, "reason", reason, "clients", n)
	}
}

// Close disconnects every subscriber and rejects new ones.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	clients := make([]*feedClient, 0, len(f.clients))
	for c := range f.clients {
		clients = append(clients, c)
	}
	f.mu.Unlock()

	for _, c := range clients {
		f.remove(c, "shutdown")
	}
}
