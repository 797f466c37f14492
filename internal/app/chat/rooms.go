package chat

import "sync"

// roomIndex tracks room subscriptions in both directions:
// room id to subscribed connections for fan-out, and connection to joined rooms for teardown.
type roomIndex struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Connection]struct{}
	joined map[*Connection]map[string]struct{}
}

func newRoomIndex() *roomIndex {
	return &roomIndex{
		rooms:  make(map[string]map[*Connection]struct{}),
		joined: make(map[*Connection]map[string]struct{}),
	}
}

func (ri *roomIndex) join(room string, c *Connection) {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	if ri.rooms[room] == nil {
		ri.rooms[room] = make(map[*Connection]struct{})
	}
	ri.rooms[room][c] = struct{}{}

	if ri.joined[c] == nil {
		ri.joined[c] = make(map[string]struct{})
	}
	ri.joined[c][room] = struct{}{}
}

// leave reports whether c was subscribed to room.
func (ri *roomIndex) leave(room string, c *Connection) bool {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	return ri.removeLocked(room, c)
}

// leaveAll drops every subscription held by c and returns the rooms it left.
func (ri *roomIndex) leaveAll(c *Connection) []string {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	rooms := ri.joined[c]
	if len(rooms) == 0 {
		return nil
	}

	left := make([]string, 0, len(rooms))
	for room := range rooms {
		left = append(left, room)
		ri.removeLocked(room, c)
	}
	return left
}

func (ri *roomIndex) removeLocked(room string, c *Connection) bool {
	members, ok := ri.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[c]; !ok {
		return false
	}

	delete(members, c)
	if len(members) == 0 {
		delete(ri.rooms, room)
	}

	if rooms, ok := ri.joined[c]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(ri.joined, c)
		}
	}
	return true
}

func (ri *roomIndex) members(room string) []*Connection {
	ri.mu.RLock()
	defer ri.mu.RUnlock()

	members := ri.rooms[room]
	if len(members) == 0 {
		return nil
	}

	result := make([]*Connection, 0, len(members))
	for c := range members {
		result = append(result, c)
	}
	return result
}

func (ri *roomIndex) has(room string, c *Connection) bool {
	ri.mu.RLock()
	defer ri.mu.RUnlock()

	_, ok := ri.rooms[room][c]
	return ok
}

func (ri *roomIndex) roomsOf(c *Connection) []string {
	ri.mu.RLock()
	defer ri.mu.RUnlock()

	rooms := ri.joined[c]
	result := make([]string, 0, len(rooms))
	for room := range rooms {
		result = append(result, room)
	}
	return result
}

// count returns the number of rooms with at least one subscriber.
func (ri *roomIndex) count() int {
	ri.mu.RLock()
	defer ri.mu.RUnlock()

	return len(ri.rooms)
}
