/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both inside the server
and in acknowledgements and error events sent to connected clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that event or request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that an inbound frame was not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrUnsupportedEvent indicates that the client sent an event type the server does not handle.
	ErrUnsupportedEvent = 1008
)

// 2xxx: Chat and Message Validation Errors
const (
	// ErrPeerRequired indicates that a room join or leave did not name the other participant.
	ErrPeerRequired = 2001

	// ErrReceiverRequired indicates that a message was sent without a receiver.
	ErrReceiverRequired = 2002

	// ErrContentRequired indicates that a message had no content.
	ErrContentRequired = 2003

	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2004

	// ErrMessageTypeInvalid indicates that the message type tag is not one of the supported types.
	ErrMessageTypeInvalid = 2005

	// ErrMessageIDRequired indicates that a read receipt did not carry a message id.
	ErrMessageIDRequired = 2006

	// ErrAttachmentNotFound indicates that an image message referenced an object that does not exist.
	ErrAttachmentNotFound = 2007
)

// 3xxx: Session and Authorization Errors
const (
	// ErrUnauthorized indicates that the handshake credential was missing, invalid, expired,
	// or resolved to an unknown user.
	ErrUnauthorized = 3001

	// ErrSessionKicked indicates that the connection was replaced by a newer one for the same user.
	ErrSessionKicked = 3004

	// ErrNotFriends indicates that the two users have no confirmed, unblocked relationship.
	ErrNotFriends = 3101

	// ErrNotMessageReceiver indicates that the caller tried to mark a message it did not receive.
	ErrNotMessageReceiver = 3102
)

// 4xxx: Lookup Errors
const (
	// ErrMessageNotFound indicates that the referenced message id does not exist.
	ErrMessageNotFound = 4001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrPersistenceFailed indicates that the durable store rejected or failed a write.
	ErrPersistenceFailed = 5001
)
