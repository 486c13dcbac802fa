// Package realtime streams bus events to websocket clients.
package realtime

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/events"
)

type subscriber interface {
	Subscribe() *events.Subscription
}

// Hub upgrades HTTP requests to websocket connections. Each connection is
// one bus subscriber and receives every event as a JSON envelope.
type Hub struct {
	bus      subscriber
	cfg      config.RealtimeConfig
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewHub creates a Hub. allowedOrigins restricts the Origin header of
// upgrade requests; "*" allows any origin.
func NewHub(bus subscriber, cfg config.RealtimeConfig, allowedOrigins []string, log *slog.Logger) *Hub {
	h := &Hub{
		bus:   bus,
		cfg:   cfg,
		log:   log.With("component", "realtime"),
		conns: make(map[*websocket.Conn]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		if slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// ServeWS upgrades the request and streams events until the client goes
// away or the hub is closed.
func (h *Hub) ServeWS(c *gin.Context) {
	if h.isClosed() {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("failed to upgrade", slog.Any("error", err))
		return
	}

	if !h.track(conn) {
		_ = conn.Close()
		return
	}
	defer h.untrack(conn)

	sub := h.bus.Subscribe()
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(conn, sub, done)
	}()

	h.log.Info("client connected", slog.String("remote", c.Request.RemoteAddr))

	h.readLoop(conn)

	sub.Unsubscribe()
	close(done)
	_ = conn.Close()
	wg.Wait()

	h.log.Info("client disconnected", slog.String("remote", c.Request.RemoteAddr))
}

// readLoop consumes control frames so pongs are handled. Clients do not
// send application messages; anything received is discarded.
func (h *Hub) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(h.cfg.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !errors.Is(err, net.ErrClosed) {
				h.log.Debug("read failed", slog.Any("error", err))
			}
			return
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, sub *events.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := events.Encode(ev)
			if err != nil {
				h.log.Error("failed to encode event", slog.String("kind", string(ev.Kind())), slog.Any("error", err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debug("write failed", slog.Any("error", err))
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) track(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Hub) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	h.wg.Done()
}

// Connections returns the number of open websocket connections.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close sends a close frame to every client, then waits for their handlers
// to return. New upgrades are refused afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	deadline := time.Now().Add(h.cfg.WriteTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = conn.Close()
	}
	h.wg.Wait()
}
