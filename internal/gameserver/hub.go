package gameserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rolling/internal/game/event"
)

const (
	subscriberBuffer = 32
	writeTimeout     = 5 * time.Second
	pongTimeout      = 60 * time.Second
	pingInterval     = 30 * time.Second
)

// Hub fans committed events out to the WebSocket connections of the
// characters they concern. A subscriber that does not keep up loses events.
type Hub struct {
	mu       sync.Mutex
	subs     map[string]map[chan event.Event]struct{}
	closed   bool
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates a Hub.
//
// Precondition: logger must be non-nil.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs: make(map[string]map[chan event.Event]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Subscribe registers a listener for the events of characterID. The
// returned function unregisters it and closes the channel. Once the hub is
// closed the returned channel is already closed.
func (h *Hub) Subscribe(characterID string) (<-chan event.Event, func()) {
	ch := make(chan event.Event, subscriberBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.subs[characterID] == nil {
		h.subs[characterID] = make(map[chan event.Event]struct{})
	}
	h.subs[characterID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[characterID][ch]; !ok {
				return
			}
			delete(h.subs[characterID], ch)
			if len(h.subs[characterID]) == 0 {
				delete(h.subs, characterID)
			}
			close(ch)
		})
	}
}

// Close ends every subscription, which closes the open event streams, and
// refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, chans := range h.subs {
		for ch := range chans {
			close(ch)
		}
		delete(h.subs, id)
	}
}

// Subscribers returns the number of listeners of characterID.
func (h *Hub) Subscribers(characterID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[characterID])
}

// Publish delivers events to the listeners of their characters without
// blocking.
func (h *Hub) Publish(events ...event.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range events {
		for ch := range h.subs[e.CharacterID] {
			select {
			case ch <- e:
			default:
				h.logger.Warn("event dropped for slow subscriber",
					zap.String("character", e.CharacterID),
					zap.Stringer("event", e.ID),
				)
			}
		}
	}
}

// ServeWS upgrades the request and streams the events of the character
// named by the "id" route variable as JSON messages until the client leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	characterID := mux.Vars(r)["id"]
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("character", characterID), zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.Subscribe(characterID)
	defer unsubscribe()
	h.logger.Info("event stream opened", zap.String("character", characterID))

	// Writer goroutine.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ping := time.NewTicker(pingInterval)
		defer ping.Stop()
		for {
			select {
			case e, ok := <-events:
				if !ok {
					// Hub closed or reader gone: closing the connection
					// releases the reader loop.
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
						time.Now().Add(writeTimeout))
					_ = conn.Close()
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(e); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop: only control frames are expected.
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	unsubscribe()
	select {
	case <-writerDone:
	case <-time.After(500 * time.Millisecond):
	}
	h.logger.Info("event stream closed", zap.String("character", characterID))
}
