package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/emilythestrangee/qa-forum/backend/internal/events"
)

type publisher interface {
	Publish(e events.Event)
}

// Stream reads event envelopes from the server's websocket and republishes
// them on a local bus. It reconnects with exponential backoff until its
// context is cancelled. Events sent while disconnected are lost.
type Stream struct {
	url    string
	dialer *websocket.Dialer
	bus    publisher
	log    *slog.Logger

	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewStream creates a Stream for socketURL (ws:// or wss://).
func NewStream(socketURL string, bus publisher, log *slog.Logger) *Stream {
	return &Stream{
		url:             socketURL,
		dialer:          websocket.DefaultDialer,
		bus:             bus,
		log:             log.With("component", "stream"),
		initialInterval: 500 * time.Millisecond,
		maxInterval:     30 * time.Second,
	}
}

// Run connects and relays events until ctx is done.
func (s *Stream) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialInterval
	b.MaxInterval = s.maxInterval
	b.MaxElapsedTime = 0

	for {
		connected, err := s.relay(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			b.Reset()
		}

		delay := b.NextBackOff()
		s.log.Warn("stream disconnected", slog.Any("error", err), slog.Duration("retry_in", delay))

		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// relay runs one connection. connected reports whether the dial succeeded.
func (s *Stream) relay(ctx context.Context) (connected bool, err error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("failed to dial: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	s.log.Info("stream connected", slog.String("url", s.url))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("failed to read message: %w", err)
		}
		ev, err := events.Decode(data)
		if err != nil {
			s.log.Warn("dropping undecodable event", slog.Any("error", err))
			continue
		}
		s.bus.Publish(ev)
	}
}
