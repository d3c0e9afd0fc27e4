// Package feed connects upstream tick feeds to the normalization pipeline.
// The client owns the transport session; the manager owns subscription
// handles and instrument lifecycles.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/quantfabric/meridian/internal/normalization"
	"github.com/quantfabric/meridian/internal/observability"
)

const (
	dialReadyTimeout     = 10 * time.Second
	pingInterval         = 30 * time.Second
	pingTimeout          = 5 * time.Second
	maxReconnectInterval = 30 * time.Second
	readLimit            = 2 * 1024 * 1024
)

// Handler receives every decoded tick read off the wire.
type Handler func(instrument string, tick normalization.Tick)

// envelope is the wire frame carrying one tick for one instrument.
type envelope struct {
	Instrument string          `json:"instrument"`
	Fields     json.RawMessage `json:"fields"`
}

// Client maintains a single websocket session against an upstream feed with
// automatic reconnection. Inbound ticks are paced by the limiter and handed
// to the handler on the read goroutine; the handler must not block.
type Client struct {
	url     string
	handler Handler
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	conn   *websocket.Conn
	connMu sync.RWMutex

	ready     chan struct{}
	readyOnce sync.Once
}

// NewClient prepares a client for the feed URL. A nil limiter disables
// ingest pacing.
func NewClient(ctx context.Context, url string, handler Handler, limiter *rate.Limiter) *Client {
	clientCtx, cancel := context.WithCancel(ctx)
	c := new(Client)
	c.url = url
	c.handler = handler
	c.limiter = limiter
	c.ctx = clientCtx
	c.cancel = cancel
	c.ready = make(chan struct{})
	return c
}

// Start establishes the session in a background goroutine and waits for the
// first successful dial.
func (c *Client) Start() error {
	go func() {
		if err := c.connect(); err != nil && !errors.Is(err, context.Canceled) {
			observability.Log().Error("feed connection loop terminated",
				observability.Field{Key: "url", Value: c.url},
				observability.Field{Key: "error", Value: err.Error()})
		}
	}()

	select {
	case <-c.ready:
		return nil
	case <-time.After(dialReadyTimeout):
		return errors.New("timeout waiting for feed connection")
	case <-c.ctx.Done():
		return fmt.Errorf("feed client context done: %w", c.ctx.Err())
	}
}

// Stop closes the session and cancels the client context.
func (c *Client) Stop() {
	c.cancel()
	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "shutdown")
		c.conn = nil
	}
	c.connMu.Unlock()
}

// connect keeps one session alive until the client context terminates,
// re-dialing with exponential backoff after transport failures.
func (c *Client) connect() error {
	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.MaxInterval = maxReconnectInterval

	for {
		select {
		case <-c.ctx.Done():
			return context.Canceled
		default:
		}

		conn, _, err := websocket.Dial(c.ctx, c.url, nil)
		if err != nil {
			observability.Log().Warn("feed dial failed",
				observability.Field{Key: "url", Value: c.url},
				observability.Field{Key: "error", Value: err.Error()})
			if err := c.sleep(backoffCfg.NextBackOff()); err != nil {
				return err
			}
			continue
		}

		conn.SetReadLimit(readLimit)

		c.connMu.Lock()
		c.conn = conn
		c.connMu.Unlock()

		c.readyOnce.Do(func() {
			close(c.ready)
		})
		backoffCfg.Reset()

		connCtx, connCancel := context.WithCancel(c.ctx)
		errCh := make(chan error, 2)
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			errCh <- c.readLoop(connCtx, conn)
		}()
		go func() {
			defer wg.Done()
			errCh <- c.pingLoop(connCtx, conn)
		}()

		firstErr := <-errCh
		connCancel()

		c.connMu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.connMu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "")

		wg.Wait()
		close(errCh)

		if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
			observability.Log().Warn("feed session ended",
				observability.Field{Key: "url", Value: c.url},
				observability.Field{Key: "error", Value: firstErr.Error()})
		}

		if err := c.sleep(backoffCfg.NextBackOff()); err != nil {
			return err
		}
	}
}

func (c *Client) sleep(d time.Duration) error {
	if d == backoff.Stop {
		d = maxReconnectInterval
	}
	select {
	case <-c.ctx.Done():
		return context.Canceled
	case <-time.After(d):
		return nil
	}
}

// pingLoop keeps the session alive and detects stale sockets.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return transportError("ping", err)
			}
		}
	}
}

// readLoop decodes tick envelopes and hands them to the handler, pacing with
// the ingest limiter.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			return transportError("read", err)
		}
		if msgType != websocket.MessageText {
			continue
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return context.Canceled
			}
		}

		instrument, tick, err := decodeEnvelope(data)
		if err != nil {
			observability.Log().Warn("malformed feed frame dropped",
				observability.Field{Key: "url", Value: c.url},
				observability.Field{Key: "error", Value: err.Error()})
			continue
		}
		if c.handler != nil {
			c.handler(instrument, tick)
		}
	}
}

func decodeEnvelope(data []byte) (string, normalization.Tick, error) {
	var frame envelope
	if err := json.Unmarshal(data, &frame); err != nil {
		return "", normalization.Tick{}, fmt.Errorf("decode envelope: %w", err)
	}
	if frame.Instrument == "" {
		return "", normalization.Tick{}, errors.New("envelope missing instrument")
	}
	var tick normalization.Tick
	if len(frame.Fields) > 0 {
		if err := tick.UnmarshalJSON(frame.Fields); err != nil {
			return "", normalization.Tick{}, fmt.Errorf("decode fields: %w", err)
		}
	}
	return frame.Instrument, tick, nil
}

func transportError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, net.ErrClosed) {
		return context.Canceled
	}
	if status := websocket.CloseStatus(err); status != -1 {
		if status == websocket.StatusNormalClosure {
			return context.Canceled
		}
		return fmt.Errorf("%s: remote closed with status %d", op, status)
	}
	return fmt.Errorf("%s: %w", op, err)
}
