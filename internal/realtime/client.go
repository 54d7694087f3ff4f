package realtime

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/observability"
)

// Conn is the subset of a websocket connection the relay needs.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one authenticated live connection. A user may hold many.
type Client struct {
	ID      string
	UserID  uint
	Role    string
	Profile dto.PublicUser

	send   chan Event
	closed chan struct{}
	once   sync.Once
}

// NewClient allocates a client with a bounded outbound queue.
func NewClient(profile dto.PublicUser, role string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 32
	}
	return &Client{
		ID:      uuid.NewString(),
		UserID:  profile.ID,
		Role:    role,
		Profile: profile,
		send:    make(chan Event, buffer),
		closed:  make(chan struct{}),
	}
}

// Send enqueues an event without blocking. It returns false when the client
// is closed or its queue is full.
func (c *Client) Send(event Event) bool {
	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.send <- event:
		return true
	default:
		observability.EventsDropped().WithLabelValues(string(event.Type)).Inc()
		return false
	}
}

// Events exposes the outbound queue, used by the SSE stream.
func (c *Client) Events() <-chan Event {
	return c.send
}

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} {
	return c.closed
}

// Close marks the client closed; safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.closed)
	})
}

// WritePump drains the outbound queue onto conn and pings on idle.
// It returns when the client closes or a write fails.
func (c *Client) WritePump(conn Conn, pingInterval time.Duration, logger zerolog.Logger) {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case event := <-c.send:
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Str("client_id", c.ID).Msg("socket write loop terminated")
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				logger.Debug().Err(err).Str("client_id", c.ID).Msg("socket ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}
