/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
handshake responses, acknowledgements and error events.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Kind: KindValidation, Message: "Invalid request parameters."},
	ErrInvalidJSONFormat: {Code: ErrInvalidJSONFormat, Kind: KindValidation, Message: "Unsupported request format."},
	ErrUnsupportedEvent:  {Code: ErrUnsupportedEvent, Kind: KindValidation, Message: "Unsupported event: %s."},

	// 2xxx: Chat and Message Validation Errors
	ErrPeerRequired:          {Code: ErrPeerRequired, Kind: KindValidation, Message: "Peer user id is required."},
	ErrReceiverRequired:      {Code: ErrReceiverRequired, Kind: KindValidation, Message: "Receiver id is required."},
	ErrContentRequired:       {Code: ErrContentRequired, Kind: KindValidation, Message: "Message content is required."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Kind: KindValidation, Message: "Message content cannot exceed %d characters."},
	ErrMessageTypeInvalid:    {Code: ErrMessageTypeInvalid, Kind: KindValidation, Message: "Invalid message type."},
	ErrMessageIDRequired:     {Code: ErrMessageIDRequired, Kind: KindValidation, Message: "Message id is required."},
	ErrAttachmentNotFound:    {Code: ErrAttachmentNotFound, Kind: KindValidation, Message: "Attachment not found."},

	// 3xxx: Session and Authorization Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Kind: KindAuthRejected, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrSessionKicked:      {Code: ErrSessionKicked, Kind: KindAuthRejected, Message: "You were signed in on another device."},
	ErrNotFriends:         {Code: ErrNotFriends, Kind: KindAuthorization, Message: "Can only chat with friends", Status: http.StatusForbidden},
	ErrNotMessageReceiver: {Code: ErrNotMessageReceiver, Kind: KindAuthorization, Message: "Only the receiver can mark a message as read.", Status: http.StatusForbidden},

	// 4xxx: Lookup Errors
	ErrMessageNotFound: {Code: ErrMessageNotFound, Kind: KindNotFound, Message: "Message not found.", Status: http.StatusNotFound},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Kind: KindInternal, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrPersistenceFailed: {Code: ErrPersistenceFailed, Kind: KindPersistence, Message: "Failed to send message.", Status: http.StatusInternalServerError},
}
