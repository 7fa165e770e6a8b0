package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/gestureos/internal/dispatch"
	"github.com/ayusman/gestureos/internal/gesture"
	"github.com/ayusman/gestureos/internal/recognizer"
)

// RecognizerHandler accepts recognizer predictions over a websocket. It is a
// dispatch.Source: frames are only accepted while the manager that owns it
// is registered.
type RecognizerHandler struct {
	decoder recognizer.Decoder
	logger  *zap.SugaredLogger

	mu     sync.RWMutex
	submit dispatch.SubmitFunc
	conns  map[*websocket.Conn]string
}

var _ dispatch.Source = (*RecognizerHandler)(nil)

// NewRecognizerHandler creates a detached handler.
func NewRecognizerHandler(decoder recognizer.Decoder, logger *zap.SugaredLogger) *RecognizerHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RecognizerHandler{
		decoder: decoder,
		logger:  logger,
		conns:   make(map[*websocket.Conn]string),
	}
}

// Name implements dispatch.Source.
func (h *RecognizerHandler) Name() string {
	return "recognizer-ws"
}

// Run implements dispatch.Source. It attaches the handler until ctx is
// cancelled, then closes every open connection.
func (h *RecognizerHandler) Run(ctx context.Context, submit dispatch.SubmitFunc) error {
	h.mu.Lock()
	h.submit = submit
	h.mu.Unlock()

	<-ctx.Done()

	h.mu.Lock()
	h.submit = nil
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
	return ctx.Err()
}

// Attached reports whether the handler is accepting predictions.
func (h *RecognizerHandler) Attached() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.submit != nil
}

// Connections returns the number of open recognizer connections.
func (h *RecognizerHandler) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

type recognizerError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// ServeHTTP upgrades the request and reads one prediction per text frame.
func (h *RecognizerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.Attached() {
		http.Error(w, "gesture engine not running", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("recognizer websocket upgrade failed", "error", err)
		return
	}
	id := uuid.New().String()

	h.mu.Lock()
	h.conns[conn] = id
	h.mu.Unlock()
	h.logger.Infow("recognizer connected", "conn", id, "remote_addr", r.RemoteAddr)

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
		h.logger.Infow("recognizer disconnected", "conn", id)
	}()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		pair, err := h.decoder.Decode(payload)
		if err != nil {
			h.logger.Warnw("rejected recognizer frame", "conn", id, "error", err)
			if werr := conn.WriteJSON(recognizerError{Type: "error", Error: err.Error()}); werr != nil {
				return
			}
			continue
		}

		if !h.deliver(pair) {
			return
		}
	}
}

// deliver submits pair while holding the read lock so Run cannot return
// with a submit in flight.
func (h *RecognizerHandler) deliver(pair gesture.PredictionPair) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.submit == nil {
		return false
	}
	h.submit(pair)
	return true
}
