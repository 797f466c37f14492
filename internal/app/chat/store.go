package chat

import (
	"context"

	"playchat/internal/app/message"
	"playchat/internal/app/user"
)

// Store is the durable storage the hub consults for relationships and messages.
// Every call receives the hub context; no per-call timeout is applied.
type Store interface {
	// FindRelationship returns the relationship between a and b in either direction,
	// or nil when the two users have none.
	FindRelationship(ctx context.Context, a, b string) (*user.Relationship, error)

	// CreateMessage persists a new unread message and returns the stored record.
	CreateMessage(ctx context.Context, msg message.NewMessage) (message.Message, error)

	// GetMessage returns message.ErrNotFound for an unknown id.
	GetMessage(ctx context.Context, id string) (message.Message, error)

	// MarkMessageRead sets the read flag. An existing read timestamp is kept.
	MarkMessageRead(ctx context.Context, id string) (message.Message, error)

	// ListConfirmedRelations returns the ids of every accepted, unblocked friend of userID.
	ListConfirmedRelations(ctx context.Context, userID string) ([]string, error)
}

// ObjectChecker confirms that an uploaded object exists before an image message referencing
// it is persisted. storage.Service satisfies it.
type ObjectChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// IDNormalizer is implemented by stores whose user ids have more than one textual form.
// NormalizeID returns the canonical form of id, or false when id is not a valid user id.
type IDNormalizer interface {
	NormalizeID(id string) (string, bool)
}
