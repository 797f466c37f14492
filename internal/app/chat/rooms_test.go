package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomIndex_JoinLeave(t *testing.T) {
	ri := newRoomIndex()
	a, b := &Connection{ID: "a"}, &Connection{ID: "b"}

	ri.join("r1", a)
	ri.join("r1", b)
	ri.join("r2", a)
	ri.join("r1", a)

	assert.ElementsMatch(t, []*Connection{a, b}, ri.members("r1"))
	assert.ElementsMatch(t, []string{"r1", "r2"}, ri.roomsOf(a))
	assert.True(t, ri.has("r2", a))
	assert.False(t, ri.has("r2", b))
	assert.Equal(t, 2, ri.count())

	assert.True(t, ri.leave("r2", a))
	assert.False(t, ri.leave("r2", a), "leaving twice is a no-op")
	assert.False(t, ri.leave("never", b))
	assert.Equal(t, 1, ri.count())
}

func TestRoomIndex_LeaveAll(t *testing.T) {
	ri := newRoomIndex()
	a, b := &Connection{ID: "a"}, &Connection{ID: "b"}

	ri.join("r1", a)
	ri.join("r2", a)
	ri.join("r2", b)

	assert.ElementsMatch(t, []string{"r1", "r2"}, ri.leaveAll(a))
	assert.Empty(t, ri.roomsOf(a))
	assert.Nil(t, ri.members("r1"))
	assert.Equal(t, []*Connection{b}, ri.members("r2"))
	assert.Equal(t, 1, ri.count())

	assert.Nil(t, ri.leaveAll(a))
}
