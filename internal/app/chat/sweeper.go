package chat

import "time"

// runSweeper evicts inactive presence entries until the hub is shut down.
func (h *Hub) runSweeper() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.opts.SweepInterval)
	defer ticker.Stop()

	h.logger.Info().
		Dur("interval", h.opts.SweepInterval).
		Dur("timeout", h.opts.InactivityTimeout).
		Msg("Sweeper started.")

	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info().Msg("Sweeper stopped.")
			return
		case now := <-ticker.C:
			h.sweep(now)
		}
	}
}

// sweep evicts every user inactive since before now minus the timeout. Each evicted
// user loses its rooms, gets the same offline broadcast as a disconnect, and its
// connection is kicked with CloseInactive.
func (h *Hub) sweep(now time.Time) int {
	evicted := h.presence.EvictStale(now.Add(-h.opts.InactivityTimeout))

	for _, e := range evicted {
		h.rooms.leaveAll(e.Conn)
		h.metrics.OnlineUsers.Add(h.ctx, -1)
		h.broadcastStatus(h.ctx, e.UserID, StatusOffline)
		e.Conn.Kick(CloseInactive, "inactive")
	}

	if len(evicted) > 0 {
		h.metrics.PresenceEvictions.Add(h.ctx, int64(len(evicted)))
		h.logger.Info().Int("evicted", len(evicted)).Msg("Evicted inactive users")
	}

	return len(evicted)
}
