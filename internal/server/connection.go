package server

import (
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const maxMessageSize = 4096

// Connection is one websocket client. Writes go through a buffered queue
// drained by a single writer goroutine, so a slow client never blocks a tick.
type Connection struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	closed       atomic.Bool
	connectedAt  time.Time

	messagesSent     atomic.Uint64
	messagesReceived atomic.Uint64
	dropped          atomic.Uint64
}

func newConnection(conn *websocket.Conn, writeTimeout time.Duration, queue int) *Connection {
	conn.SetReadLimit(maxMessageSize)
	return &Connection{
		id:           uuid.NewString(),
		conn:         conn,
		writeTimeout: writeTimeout,
		send:         make(chan []byte, queue),
		done:         make(chan struct{}),
		connectedAt:  time.Now(),
	}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *Connection) IsClosed() bool { return c.closed.Load() }

// Enqueue queues a frame without blocking. It reports false when the frame was
// dropped because the client is closed or behind.
func (c *Connection) Enqueue(data []byte) bool {
	if c.IsClosed() {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// EnqueueJSON marshals v and queues it.
func (c *Connection) EnqueueJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}
	if !c.Enqueue(data) {
		return ErrConnectionClosed
	}
	return nil
}

// ReceiveMessage blocks for the next client frame.
func (c *Connection) ReceiveMessage() (ClientMessage, error) {
	var msg ClientMessage
	if c.IsClosed() {
		return msg, ErrConnectionClosed
	}
	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return msg, errors.Wrap(err, "failed to read message")
	}
	if messageType != websocket.TextMessage {
		return msg, errors.Wrap(ErrInvalidMessage, "expected text message")
	}
	c.messagesReceived.Add(1)
	if err = json.Unmarshal(data, &msg); err != nil {
		return msg, errors.Wrap(ErrInvalidMessage, err.Error())
	}
	return msg, nil
}

// writeLoop drains the send queue until the connection closes.
func (c *Connection) writeLoop() error {
	for {
		select {
		case <-c.done:
			return nil
		case data := <-c.send:
			if c.writeTimeout > 0 {
				_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return errors.Wrap(err, "failed to write message")
			}
			c.messagesSent.Add(1)
		}
	}
}

// Close sends a close frame when possible and releases the socket. Safe to call
// more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = c.conn.Close()
	})
	return err
}

// Stats reports frame counters for logging.
func (c *Connection) Stats() (sent, received, dropped uint64) {
	return c.messagesSent.Load(), c.messagesReceived.Load(), c.dropped.Load()
}
