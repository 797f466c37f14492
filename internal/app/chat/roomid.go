package chat

// roomPrefix namespaces pair rooms.
const roomPrefix = "chat_"

// RoomID returns the room identifier shared by two users.
// The ids are ordered first, so RoomID(a, b) == RoomID(b, a).
func RoomID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return roomPrefix + a + "_" + b
}
