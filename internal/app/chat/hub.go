/*
Package chat contains the real-time presence and messaging core.

This file defines the Hub struct, the single in-process authority for presence and room
membership. It binds authenticated connections, dispatches their events, and runs the
liveness sweeper.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"playchat/internal/app/user"
	"playchat/internal/pkg/errs"
	"playchat/internal/pkg/logx"
	"playchat/internal/pkg/telemetry"
)

const (
	// DefaultSweepInterval is how often the sweeper scans presence when none is configured.
	DefaultSweepInterval = 5 * time.Minute

	// DefaultInactivityTimeout is how long a user may stay silent before eviction.
	DefaultInactivityTimeout = 5 * time.Minute
)

// Options tunes the hub.
type Options struct {
	SweepInterval     time.Duration
	InactivityTimeout time.Duration

	// Objects verifies image object keys. Nil skips verification.
	Objects ObjectChecker

	// Metrics defaults to instruments from the global meter provider.
	Metrics *telemetry.Metrics
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	OnlineUsers int `json:"onlineUsers"`
	ActiveRooms int `json:"activeRooms"`
}

// Hub coordinates presence, rooms and message delivery for every connection in the process.
type Hub struct {
	store    Store
	objects  ObjectChecker
	presence *Presence
	rooms    *roomIndex
	metrics  *telemetry.Metrics
	opts     Options

	// ctx is passed to every store call and cancelled on Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	// wg waits for the sweeper goroutine during shutdown.
	wg sync.WaitGroup

	startOnce sync.Once

	logger zerolog.Logger
}

// NewHub constructs a Hub. Call Start to run the sweeper.
func NewHub(store Store, opts Options) *Hub {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.InactivityTimeout <= 0 {
		opts.InactivityTimeout = DefaultInactivityTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewMetrics()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		store:    store,
		objects:  opts.Objects,
		presence: NewPresence(),
		rooms:    newRoomIndex(),
		metrics:  opts.Metrics,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logx.Component("Hub"),
	}
}

// Start launches the liveness sweeper.
func (h *Hub) Start() {
	h.startOnce.Do(func() {
		h.wg.Add(1)
		go h.runSweeper()
	})
}

// Presence exposes the registry for read-only lookups.
func (h *Hub) Presence() *Presence {
	return h.presence
}

// Stats reports the number of online users and rooms with subscribers.
func (h *Hub) Stats() Stats {
	return Stats{
		OnlineUsers: h.presence.Count(),
		ActiveRooms: h.rooms.count(),
	}
}

// Connect binds an authenticated transport to u and registers it in presence.
// A previous connection of the same user is kicked with CloseSessionReplaced.
// The online broadcast fires only when the user was not already present.
func (h *Hub) Connect(ws *websocket.Conn, u user.User) *Connection {
	c := newConnection(h, ws, u)

	prev, cameOnline := h.presence.Register(u.ID, c)
	h.metrics.ConnectionsOpened.Add(h.ctx, 1)

	if prev != nil {
		h.rooms.leaveAll(prev)
		prev.Kick(CloseSessionReplaced, errs.NewError(errs.ErrSessionKicked).Message)
	}

	if cameOnline {
		h.metrics.OnlineUsers.Add(h.ctx, 1)
		h.broadcastStatus(h.ctx, u.ID, StatusOnline)
	}

	c.logger.Info().Bool("replaced", prev != nil).Msg("Client connected.")
	return c
}

// Serve runs the write loop in the background and the read loop on the calling goroutine.
// It returns once the connection is gone.
func (h *Hub) Serve(c *Connection) {
	go c.WritePump()
	c.ReadPump()
}

// disconnect tears down the rooms and presence entry owned by c.
// The offline broadcast is skipped if c had already been superseded or evicted.
func (h *Hub) disconnect(c *Connection) {
	h.rooms.leaveAll(c)

	if h.presence.Release(c.user.ID, c) {
		h.metrics.OnlineUsers.Add(h.ctx, -1)
		h.broadcastStatus(h.ctx, c.user.ID, StatusOffline)
	}

	c.logger.Info().Msg("Client disconnected.")
}

// dispatch decodes one inbound frame and routes it to its handler. Any frame counts
// as activity, including one that fails to parse.
func (h *Hub) dispatch(c *Connection, data []byte) {
	h.presence.Touch(c.user.ID)

	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		c.fail("", "", errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	ctx := h.ctx

	switch in.Type {
	case EventJoin:
		var p PeerPayload
		if cerr := decodePayload(in.Payload, &p); cerr != nil {
			c.fail(in.Type, in.AckID, cerr)
			return
		}
		res, cerr := h.Join(ctx, c, p.OtherUserID)
		respond(c, in, res, cerr, true)

	case EventLeave:
		var p PeerPayload
		if cerr := decodePayload(in.Payload, &p); cerr != nil {
			c.fail(in.Type, in.AckID, cerr)
			return
		}
		cerr := h.Leave(c, p.OtherUserID)
		respond(c, in, SuccessResult{Success: true}, cerr, false)

	case EventMessageSend:
		var p SendPayload
		if cerr := decodePayload(in.Payload, &p); cerr != nil {
			c.fail(in.Type, in.AckID, cerr)
			return
		}
		res, cerr := h.Send(ctx, c, SendRequest{
			ReceiverID: p.ReceiverID,
			Content:    p.Content,
			Type:       p.Type,
			TempID:     p.TempID,
		})
		respond(c, in, res, cerr, true)

	case EventMessageRead:
		var p ReadPayload
		if cerr := decodePayload(in.Payload, &p); cerr != nil {
			c.fail(in.Type, in.AckID, cerr)
			return
		}
		cerr := h.MarkRead(ctx, c, p.MessageID)
		respond(c, in, SuccessResult{Success: true}, cerr, false)

	case EventTypingStart, EventTypingStop:
		var p TypingPayload
		if cerr := decodePayload(in.Payload, &p); cerr != nil {
			c.fail(in.Type, in.AckID, cerr)
			return
		}
		cerr := h.Typing(c, p.ReceiverID, in.Type == EventTypingStart)
		respond(c, in, SuccessResult{Success: true}, cerr, false)

	case EventFriendsOnline:
		res, cerr := h.OnlineFriends(ctx, c)
		respond(c, in, res, cerr, true)

	case EventHeartbeat:
		respond(c, in, HeartbeatResult{Success: true, Timestamp: time.Now()}, nil, true)

	default:
		c.logger.Warn().Str("event", in.Type).Msg("Client sent unsupported event")
		c.fail(in.Type, in.AckID, errs.NewError(errs.ErrUnsupportedEvent, in.Type))
	}
}

// respond delivers a handler outcome. Without an ackId, successful results are pushed
// under the request's event name when push is set, and dropped otherwise.
func respond(c *Connection, in Inbound, result any, cerr *errs.CustomError, push bool) {
	if cerr != nil {
		c.fail(in.Type, in.AckID, cerr)
		return
	}

	if in.AckID != "" {
		c.ack(in.AckID, result)
		return
	}

	if push {
		c.push(in.Type, result)
	}
}

func decodePayload(raw json.RawMessage, v any) *errs.CustomError {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}
	return nil
}

// authorizePair checks the relationship between a and b. It is consulted on every
// join and send, never cached.
func (h *Hub) authorizePair(ctx context.Context, a, b string) *errs.CustomError {
	rel, err := h.store.FindRelationship(ctx, a, b)
	if err != nil {
		return errs.From(err)
	}
	if !rel.AllowsChat() {
		return errs.NewError(errs.ErrNotFriends)
	}
	return nil
}

// canonicalID maps a client-supplied user id to the form the store keys users by.
// It reports false for an empty id or one the store cannot parse.
func (h *Hub) canonicalID(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	if n, ok := h.store.(IDNormalizer); ok {
		return n.NormalizeID(id)
	}
	return id, true
}

// Join subscribes c to the room it shares with otherID.
func (h *Hub) Join(ctx context.Context, c *Connection, otherID string) (JoinResult, *errs.CustomError) {
	otherID, ok := h.canonicalID(otherID)
	if !ok {
		return JoinResult{}, errs.NewError(errs.ErrPeerRequired)
	}

	if cerr := h.authorizePair(ctx, c.user.ID, otherID); cerr != nil {
		c.logger.Info().Str("other_id", otherID).Int("code", cerr.Code).Msg("Room join rejected")
		return JoinResult{}, cerr
	}

	room := RoomID(c.user.ID, otherID)
	h.rooms.join(room, c)

	c.logger.Debug().Str("room_id", room).Msg("Joined room")

	return JoinResult{Success: true, RoomID: room, OtherUserID: otherID}, nil
}

// Leave unsubscribes c from the room it shares with otherID. Leaving a room that was
// never joined is not an error.
func (h *Hub) Leave(c *Connection, otherID string) *errs.CustomError {
	otherID, ok := h.canonicalID(otherID)
	if !ok {
		return errs.NewError(errs.ErrPeerRequired)
	}

	room := RoomID(c.user.ID, otherID)
	if h.rooms.leave(room, c) {
		c.logger.Debug().Str("room_id", room).Msg("Left room")
	}
	return nil
}

// Typing relays a typing indicator to the other subscribers of the pair's room, under
// the same event name the client sent.
func (h *Hub) Typing(c *Connection, receiverID string, isTyping bool) *errs.CustomError {
	receiverID, ok := h.canonicalID(receiverID)
	if !ok {
		return errs.NewError(errs.ErrReceiverRequired)
	}

	event := EventTypingStop
	if isTyping {
		event = EventTypingStart
	}

	h.fanOut(RoomID(c.user.ID, receiverID), c, event, TypingEvent{
		UserID:   c.user.ID,
		Username: c.user.Nickname,
		IsTyping: isTyping,
	})
	return nil
}

// OnlineFriends lists the confirmed relations of c's user that are currently online.
func (h *Hub) OnlineFriends(ctx context.Context, c *Connection) (FriendsOnlineResult, *errs.CustomError) {
	ids, err := h.store.ListConfirmedRelations(ctx, c.user.ID)
	if err != nil {
		return FriendsOnlineResult{}, errs.From(err)
	}

	return FriendsOnlineResult{Success: true, OnlineFriends: h.presence.OnlineAmong(ids)}, nil
}

// fanOut pushes one event to every subscriber of room except skip.
// It returns the number of connections the frame was queued for.
func (h *Hub) fanOut(room string, skip *Connection, event string, payload any) int {
	members := h.rooms.members(room)
	if len(members) == 0 {
		return 0
	}

	frame, err := encodeEvent(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Failed to marshal room event")
		return 0
	}

	delivered := 0
	for _, m := range members {
		if m == skip {
			continue
		}
		if m.enqueue(frame) {
			delivered++
		}
	}
	return delivered
}

// recordFailure counts a rejected send by error kind.
func (h *Hub) recordFailure(cerr *errs.CustomError) {
	h.metrics.DeliveryFailures.Add(h.ctx, 1,
		metric.WithAttributes(attribute.String("kind", string(cerr.Kind))))
}

// Shutdown stops the sweeper and closes every live connection.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down Hub...")

	h.cancel()
	h.wg.Wait()

	for _, c := range h.presence.Connections() {
		c.Kick(websocket.CloseGoingAway, "server shutting down")
	}

	h.logger.Info().Msg("Hub shutdown complete.")
}

// isContextDone reports whether err is the hub context being cancelled.
func isContextDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
