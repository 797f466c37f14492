/*
Package user contains core data structures related to player identity and the friend graph.

It defines the identity bound to every authenticated connection (User) and the
relationship record the chat core consults before two players may talk.
*/
package user

import "errors"

// User represents the resolved identity of an authenticated player.
// Fields use JSON tags for serialization in WebSocket events.
type User struct {

	// ID is the durable user id issued by the account service.
	ID string `json:"id"`

	// Nickname is the display name shown to other players.
	Nickname string `json:"nickname"`

	// Avatar is a reference (URL or object key) to the player's avatar.
	Avatar string `json:"avatar,omitempty"`
}

// Relationship is the symmetric friend link between two players.
type Relationship struct {
	UserID   string
	FriendID string

	// Confirmed is true once the friend request has been accepted.
	Confirmed bool

	// Blocked is true when either side has blocked the other.
	Blocked bool
}

// AllowsChat reports whether the relationship authorizes chat between the pair.
// A nil relationship never does.
func (r *Relationship) AllowsChat() bool {
	return r != nil && r.Confirmed && !r.Blocked
}

// ErrNotFound is returned by lookups for an unknown user id.
var ErrNotFound = errors.New("user not found")
