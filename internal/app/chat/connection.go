/*
Package chat contains the real-time presence and messaging core.

This file defines the Connection struct, representing one authenticated WebSocket session.
It owns the read and write loops and the buffered outbound queue.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"playchat/internal/app/user"
	"playchat/internal/pkg/errs"
	"playchat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	// 5000 characters of up to 4 bytes each plus the envelope.
	maxMessageSize = 24 * 1024

	// capacity of the outbound queue.
	sendBufferSize = 256

	// CloseSessionReplaced is sent to a connection superseded by a newer one for the same user.
	CloseSessionReplaced = 4001

	// CloseInactive is sent to a connection evicted by the liveness sweeper.
	CloseInactive = 4002
)

// Connection is an authenticated WebSocket session bound to a single user.
type Connection struct {
	// ID distinguishes successive connections of the same user.
	ID string

	// the identity resolved at handshake, never changed afterwards.
	user user.User

	// underlying WebSocket connection. Nil in unit tests.
	conn *websocket.Conn

	hub *Hub

	// a buffered channel used to queue frames waiting to be written.
	send chan []byte

	// closed once the connection is shutting down.
	done      chan struct{}
	closeOnce sync.Once

	// throttles queue-full warnings.
	dropLog rate.Sometimes

	logger zerolog.Logger
}

func newConnection(hub *Hub, ws *websocket.Conn, u user.User) *Connection {
	id := uuid.NewString()

	return &Connection{
		ID:      id,
		user:    u,
		conn:    ws,
		hub:     hub,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		dropLog: rate.Sometimes{First: 1, Interval: 10 * time.Second},
		logger: logx.Component("Connection").With().
			Str("client_id", u.ID).
			Str("conn_id", id).
			Logger(),
	}
}

// User returns the identity bound to the connection.
func (c *Connection) User() user.User {
	return c.user
}

// ReadPump reads frames and dispatches them to the hub one at a time, in arrival order.
// When the read fails the connection is torn down synchronously.
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.disconnect(c)
		c.stop()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.hub.dispatch(c, data)
	}
}

// WritePump drains the outbound queue and keeps the transport alive with pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			return
		}
	}
}

// write sends one frame. Returns false if the WritePump loop should terminate.
func (c *Connection) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Warn().Err(err).Int("message_type", messageType).Msg("Error writing frame")
		return false
	}

	return true
}

// enqueue queues a frame without blocking. A full queue drops the frame.
func (c *Connection) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		c.dropLog.Do(func() {
			c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping frame")
		})
		return false
	}
}

// push marshals and queues a server event.
func (c *Connection) push(event string, payload any) bool {
	frame, err := encodeEvent(event, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("Failed to marshal event")
		return false
	}
	return c.enqueue(frame)
}

// ack answers a request that carried an ackId.
func (c *Connection) ack(ackID string, payload any) {
	frame, err := json.Marshal(Outbound{Type: EventAck, AckID: ackID, Payload: payload})
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to marshal ack")
		return
	}
	c.enqueue(frame)
}

// fail reports a rejected request through its ack when it has one, else as an error event.
func (c *Connection) fail(event, ackID string, cerr *errs.CustomError) {
	if ackID != "" {
		c.ack(ackID, FailureResult{Success: false, Code: cerr.Code, Message: cerr.Message})
		return
	}

	c.push(EventError, ErrorPayload{Code: cerr.Code, Message: cerr.Message, Event: event})
}

// Kick sends a close frame with the given code and shuts the connection down.
// The read loop then fails and runs the normal disconnect path.
func (c *Connection) Kick(code int, reason string) {
	c.logger.Warn().
		Int("close_code", code).
		Str("reason", reason).
		Msg("Sending WS Kick message and closing connection.")

	if c.conn != nil {
		closeMessage := websocket.FormatCloseMessage(code, reason)
		if err := c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to send WS close message.")
		}
	}

	c.stop()
}

// stop signals the write loop to exit. Safe to call more than once.
func (c *Connection) stop() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Done is closed once the connection has been kicked or has disconnected.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}
