package chat

import (
	"context"
	"time"
)

// broadcastStatus tells every online confirmed relation of userID about a presence change.
// It returns the number of relations the event was queued for.
func (h *Hub) broadcastStatus(ctx context.Context, userID, status string) int {
	ids, err := h.store.ListConfirmedRelations(ctx, userID)
	if err != nil {
		if !isContextDone(err) {
			h.logger.Error().Err(err).
				Str("client_id", userID).
				Str("status", status).
				Msg("Failed to load relations for status broadcast")
		}
		return 0
	}

	evt := StatusEvent{UserID: userID, Status: status, Timestamp: time.Now()}

	delivered := 0
	for _, id := range ids {
		rc, ok := h.presence.HandleFor(id)
		if !ok {
			continue
		}
		if rc.push(EventUserStatus, evt) {
			delivered++
		}
	}

	if delivered > 0 {
		h.metrics.StatusBroadcasts.Add(ctx, int64(delivered))
	}

	h.logger.Debug().
		Str("client_id", userID).
		Str("status", status).
		Int("relations", len(ids)).
		Int("delivered", delivered).
		Msg("Status broadcast")

	return delivered
}
