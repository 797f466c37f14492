package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"playchat/internal/app/message"
	"playchat/internal/pkg/errs"
)

// SendRequest is a message:send request after decoding.
type SendRequest struct {
	ReceiverID string
	Content    string
	Type       string

	// TempID is the client correlation id, echoed unchanged.
	TempID string
}

// validate checks the request fields and resolves the message type.
func (r SendRequest) validate() (message.Type, *errs.CustomError) {
	if r.ReceiverID == "" {
		return "", errs.NewError(errs.ErrReceiverRequired)
	}

	if strings.TrimSpace(r.Content) == "" {
		return "", errs.NewError(errs.ErrContentRequired)
	}

	if utf8.RuneCountInString(r.Content) > message.MaxContentLength {
		return "", errs.NewError(errs.ErrMessageContentTooLong, message.MaxContentLength)
	}

	t, ok := message.ParseType(r.Type)
	if !ok {
		return "", errs.NewError(errs.ErrMessageTypeInvalid)
	}

	return t, nil
}

// Send validates, authorizes, persists and fans out a message from c.
//
// The room fan-out skips c itself; the returned SendResult is its confirmation.
// Nothing is fanned out unless the message was persisted. A receiver who is online
// but not subscribed to the room gets a notification instead.
func (h *Hub) Send(ctx context.Context, c *Connection, req SendRequest) (SendResult, *errs.CustomError) {
	res, cerr := h.send(ctx, c, req)
	if cerr != nil {
		h.recordFailure(cerr)
		c.logger.Info().
			Str("receiver_id", req.ReceiverID).
			Int("code", cerr.Code).
			Msg("Message send rejected")
	}
	return res, cerr
}

func (h *Hub) send(ctx context.Context, c *Connection, req SendRequest) (SendResult, *errs.CustomError) {
	receiverID, ok := h.canonicalID(req.ReceiverID)
	if !ok {
		return SendResult{}, errs.NewError(errs.ErrReceiverRequired)
	}
	req.ReceiverID = receiverID

	msgType, cerr := req.validate()
	if cerr != nil {
		return SendResult{}, cerr
	}

	if cerr := h.authorizePair(ctx, c.user.ID, req.ReceiverID); cerr != nil {
		return SendResult{}, cerr
	}

	if msgType == message.TypeImage {
		if cerr := h.verifyObject(ctx, req.Content); cerr != nil {
			return SendResult{}, cerr
		}
	}

	msg, err := h.store.CreateMessage(ctx, message.NewMessage{
		SenderID:   c.user.ID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Type:       msgType,
	})
	if err != nil {
		return SendResult{}, errs.NewError(errs.ErrPersistenceFailed, err)
	}

	h.metrics.MessagesSent.Add(ctx, 1)

	room := RoomID(c.user.ID, req.ReceiverID)
	h.fanOut(room, c, EventMessageNew, NewMessageEvent{Message: msg, TempID: req.TempID})

	if rc, ok := h.presence.HandleFor(req.ReceiverID); ok && !h.rooms.has(room, rc) {
		rc.push(EventMessageNotification, NotificationEvent{
			SenderID:   c.user.ID,
			SenderName: c.user.Nickname,
			Content:    message.Preview(msg.Content),
			MessageID:  msg.ID,
		})
	}

	return SendResult{Success: true, Message: msg, TempID: req.TempID}, nil
}

// verifyObject confirms that an image message points at an uploaded object.
// Verification is skipped when no object storage is configured.
func (h *Hub) verifyObject(ctx context.Context, key string) *errs.CustomError {
	if h.objects == nil {
		return nil
	}

	exists, err := h.objects.Exists(ctx, key)
	if err != nil {
		return errs.From(err)
	}
	if !exists {
		return errs.NewError(errs.ErrAttachmentNotFound)
	}
	return nil
}

// MarkRead marks a message received by c's user as read and sends a receipt to its
// sender when the sender is online. Repeating it never clears the read flag.
func (h *Hub) MarkRead(ctx context.Context, c *Connection, messageID string) *errs.CustomError {
	if messageID == "" {
		return errs.NewError(errs.ErrMessageIDRequired)
	}

	msg, err := h.store.GetMessage(ctx, messageID)
	if err != nil {
		return lookupError(err)
	}

	if msg.ReceiverID != c.user.ID {
		c.logger.Warn().Str("message_id", messageID).Msg("Read receipt from non-receiver rejected")
		return errs.NewError(errs.ErrNotMessageReceiver)
	}

	updated, err := h.store.MarkMessageRead(ctx, messageID)
	if err != nil {
		return lookupError(err)
	}

	sc, ok := h.presence.HandleFor(updated.SenderID)
	if !ok {
		return nil
	}

	receipt := ReadReceiptEvent{MessageID: updated.ID, ReadBy: c.user.ID}
	if updated.ReadAt != nil {
		receipt.ReadAt = *updated.ReadAt
	}
	sc.push(EventMessageRead, receipt)

	return nil
}

func lookupError(err error) *errs.CustomError {
	if errors.Is(err, message.ErrNotFound) {
		return errs.NewError(errs.ErrMessageNotFound)
	}
	return errs.From(err)
}
