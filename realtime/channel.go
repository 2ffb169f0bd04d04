package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"tonotes/utils"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024

	DefaultSendBuffer = 256
)

var (
	ErrChannelClosed     = errors.New("channel closed")
	ErrChannelBacklogged = errors.New("channel send queue full")
)

// Conn is the part of *websocket.Conn a Channel uses.
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

var channelIDCounter atomic.Uint64

// Channel is one live client connection. The read side runs in Serve, the write
// side in its own goroutine fed by the send queue.
type Channel struct {
	id     uint64
	conn   Conn
	client string
	send   chan Event

	done      chan struct{}
	closeOnce sync.Once
}

func NewChannel(conn Conn, client string, buffer int) *Channel {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Channel{
		id:     channelIDCounter.Add(1),
		conn:   conn,
		client: client,
		send:   make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

func (c *Channel) ID() uint64 {
	return c.id
}

func (c *Channel) Client() string {
	return c.client
}

// Alive reports whether the channel has not been closed yet.
func (c *Channel) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Deliver queues ev without blocking.
func (c *Channel) Deliver(ev Event) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	select {
	case c.send <- ev:
		return nil
	default:
		return ErrChannelBacklogged
	}
}

// Close stops the writer, which sends a close frame and closes the connection.
// Safe to call more than once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Done is closed once the channel is closed.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Serve runs the channel until the peer disconnects or Close is called.
// onMessage receives decoded client messages; onClose runs exactly once when the
// read loop ends, before Serve returns.
func (c *Channel) Serve(onMessage func(ClientMessage), onClose func()) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	c.readPump(onMessage)

	if onClose != nil {
		onClose()
	}
	c.Close()
	<-writerDone
}

func (c *Channel) readPump(onMessage func(ClientMessage)) {
	defer func() {
		_ = c.conn.Close() // unblocks the writer if it is mid-write
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		utils.Error().Err(err).Uint64("channel", c.id).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) && c.Alive() {
				utils.Warn().Err(err).Uint64("channel", c.id).Msg("unexpected websocket close")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			utils.Debug().Err(err).Uint64("channel", c.id).Msg("ignoring malformed client message")
			continue
		}
		if onMessage != nil {
			onMessage(msg)
		}
	}
}

func (c *Channel) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				utils.Debug().Err(err).Uint64("channel", c.id).Str("action", string(ev.Action)).Msg("websocket write failed")
				DeliveryFailuresTotal.WithLabelValues("write").Inc()
				c.Close()
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
