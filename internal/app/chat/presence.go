package chat

import (
	"sync"
	"time"
)

// presenceEntry is the registry record for one online user.
type presenceEntry struct {
	conn       *Connection
	lastActive time.Time
}

// Eviction is a presence entry removed by EvictStale.
type Eviction struct {
	UserID string
	Conn   *Connection
}

// Presence is the process-wide registry of online users.
// An entry exists for a user if and only if that user is considered online.
type Presence struct {
	mu      sync.RWMutex
	entries map[string]*presenceEntry
	now     func() time.Time
}

// NewPresence creates an empty registry.
func NewPresence() *Presence {
	return &Presence{
		entries: make(map[string]*presenceEntry),
		now:     time.Now,
	}
}

// Register binds conn to userID and stamps the activity time.
// prev is the handle that was replaced, if any. cameOnline is true only when the
// user had no entry before, so a reconnect never produces a second online broadcast.
func (p *Presence) Register(userID string, conn *Connection) (prev *Connection, cameOnline bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[userID]; ok {
		prev = e.conn
		e.conn = conn
		e.lastActive = p.now()
		return prev, false
	}

	p.entries[userID] = &presenceEntry{conn: conn, lastActive: p.now()}
	return nil, true
}

// Touch refreshes the activity time of userID. It does nothing for offline users.
func (p *Presence) Touch(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[userID]; ok {
		e.lastActive = p.now()
	}
}

// Unregister removes the entry for userID regardless of which connection holds it.
func (p *Presence) Unregister(userID string) (*Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[userID]
	if !ok {
		return nil, false
	}

	delete(p.entries, userID)
	return e.conn, true
}

// Release removes the entry for userID only if it is still held by conn.
// A superseded connection closing late must not take its successor offline.
func (p *Presence) Release(userID string, conn *Connection) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[userID]
	if !ok || e.conn != conn {
		return false
	}

	delete(p.entries, userID)
	return true
}

// IsOnline reports whether userID has an entry.
func (p *Presence) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.entries[userID]
	return ok
}

// HandleFor returns the current connection of userID.
func (p *Presence) HandleFor(userID string) (*Connection, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	e, ok := p.entries[userID]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// LastActive returns the activity time recorded for userID.
func (p *Presence) LastActive(userID string) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	e, ok := p.entries[userID]
	if !ok {
		return time.Time{}, false
	}
	return e.lastActive, true
}

// OnlineAmong filters ids down to the users that are online, preserving order.
func (p *Presence) OnlineAmong(ids []string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	online := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := p.entries[id]; ok {
			online = append(online, id)
		}
	}
	return online
}

// EvictStale removes every entry whose last activity is before cutoff and returns them.
// Selection and removal happen under one lock so a concurrent Touch either saves the
// entry or is applied to nothing.
func (p *Presence) EvictStale(cutoff time.Time) []Eviction {
	p.mu.Lock()
	defer p.mu.Unlock()

	var evicted []Eviction
	for userID, e := range p.entries {
		if e.lastActive.Before(cutoff) {
			evicted = append(evicted, Eviction{UserID: userID, Conn: e.conn})
			delete(p.entries, userID)
		}
	}
	return evicted
}

// Connections returns a snapshot of every registered connection.
func (p *Presence) Connections() []*Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conns := make([]*Connection, 0, len(p.entries))
	for _, e := range p.entries {
		conns = append(conns, e.conn)
	}
	return conns
}

// Count returns the number of online users.
func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.entries)
}
