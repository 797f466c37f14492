/*
Package chat contains the real-time presence and messaging core.

This file defines the wire envelope exchanged over the WebSocket and the payload
structures of every event the hub receives or emits.
*/
package chat

import (
	"encoding/json"
	"time"

	"playchat/internal/app/message"
)

// Client-to-server events.
const (
	EventJoin          = "chat:join"
	EventLeave         = "chat:leave"
	EventMessageSend   = "message:send"
	EventTypingStart   = "typing:start"
	EventTypingStop    = "typing:stop"
	EventFriendsOnline = "friends:online"
	EventHeartbeat     = "heartbeat"
)

// Server-to-client events. EventMessageRead is also sent by clients to mark a message as read.
const (
	EventMessageNew          = "message:new"
	EventMessageNotification = "message:notification"
	EventMessageRead         = "message:read"
	EventUserStatus          = "user:status"
	EventAck                 = "ack"
	EventError               = "error"
)

// Presence statuses carried by EventUserStatus.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Inbound is a frame received from a client.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	AckID   string          `json:"ackId,omitempty"`
}

// Outbound is a frame sent to a client, either a pushed event or an acknowledgement.
type Outbound struct {
	Type    string `json:"type"`
	AckID   string `json:"ackId,omitempty"`
	Payload any    `json:"payload"`
}

// PeerPayload is the payload of chat:join and chat:leave.
type PeerPayload struct {
	OtherUserID string `json:"otherUserId"`
}

// SendPayload is the payload of message:send.
type SendPayload struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Type       string `json:"type"`
	TempID     string `json:"tempId,omitempty"`
}

// ReadPayload is the payload of a client message:read.
// SenderID is accepted for compatibility but the receipt always goes to the stored sender.
type ReadPayload struct {
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId,omitempty"`
}

// TypingPayload is the payload of typing:start and typing:stop.
type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
}

// JoinResult acknowledges a successful chat:join.
type JoinResult struct {
	Success     bool   `json:"success"`
	RoomID      string `json:"roomId"`
	OtherUserID string `json:"otherUserId"`
}

// SendResult acknowledges a persisted message.
type SendResult struct {
	Success bool            `json:"success"`
	Message message.Message `json:"message"`
	TempID  string          `json:"tempId,omitempty"`
}

// SuccessResult is the bare acknowledgement of events that return no data.
type SuccessResult struct {
	Success bool `json:"success"`
}

// FriendsOnlineResult answers friends:online.
type FriendsOnlineResult struct {
	Success       bool     `json:"success"`
	OnlineFriends []string `json:"onlineFriends"`
}

// HeartbeatResult answers heartbeat.
type HeartbeatResult struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// FailureResult is the acknowledgement of a request that was rejected.
type FailureResult struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorPayload reports a rejected request that carried no ackId.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

// NewMessageEvent is pushed to room subscribers for every persisted message.
type NewMessageEvent struct {
	message.Message
	TempID string `json:"tempId,omitempty"`
}

// NotificationEvent is pushed to a receiver who is online but has not joined the pair's room.
type NotificationEvent struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
	MessageID  string `json:"messageId"`
}

// ReadReceiptEvent is pushed to the sender when the receiver reads a message.
type ReadReceiptEvent struct {
	MessageID string    `json:"messageId"`
	ReadBy    string    `json:"readBy"`
	ReadAt    time.Time `json:"readAt"`
}

// TypingEvent is pushed to the other participants of a room.
type TypingEvent struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// StatusEvent announces a presence transition to online relations.
type StatusEvent struct {
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// encodeEvent marshals a pushed event once so it can be fanned out to many connections.
func encodeEvent(event string, payload any) ([]byte, error) {
	return json.Marshal(Outbound{Type: event, Payload: payload})
}
