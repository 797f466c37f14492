/*
Package message defines the durable chat message record exchanged between two players.
*/
package message

import (
	"errors"
	"time"
	"unicode/utf8"
)

// ErrNotFound is returned by lookups for an unknown message id.
var ErrNotFound = errors.New("message not found")

// Type is the message type tag.
type Type string

const (
	TypeText    Type = "text"
	TypeImage   Type = "image"
	TypeEmoji   Type = "emoji"
	TypeSticker Type = "sticker"
)

// MaxContentLength is the maximum message length, counted in characters (runes).
const MaxContentLength = 5000

// PreviewLength is the maximum length of the content preview carried by notifications.
const PreviewLength = 50

// ParseType maps a client-supplied tag to a Type. An empty tag means text.
func ParseType(s string) (Type, bool) {
	switch t := Type(s); t {
	case "":
		return TypeText, true
	case TypeText, TypeImage, TypeEmoji, TypeSticker:
		return t, true
	default:
		return "", false
	}
}

// Message is a persisted chat message.
type Message struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"senderId"`
	ReceiverID string     `json:"receiverId"`
	Content    string     `json:"content"`
	Type       Type       `json:"type"`
	SentAt     time.Time  `json:"sentAt"`
	IsRead     bool       `json:"isRead"`
	ReadAt     *time.Time `json:"readAt"`
}

// NewMessage holds the fields supplied when a message is created.
type NewMessage struct {
	SenderID   string
	ReceiverID string
	Content    string
	Type       Type
}

// Preview truncates content to at most PreviewLength runes.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}

	runes := []rune(content)
	return string(runes[:PreviewLength])
}
