package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/ShubhKirti62/interview-signaling/internal/core"
	"github.com/ShubhKirti62/interview-signaling/internal/domain"
)

func TestRoomDirectory_LazyCreateAndDeleteWhenEmpty(t *testing.T) {
	d := NewRoomDirectory()
	assert.False(t, d.Exists("r1"))

	d.Join("r1", "a")
	assert.True(t, d.Exists("r1"))
	assert.Equal(t, 1, d.MemberCount("r1"))

	d.Join("r1", "b")
	assert.Equal(t, 2, d.MemberCount("r1"))

	d.Leave("r1", "a")
	assert.True(t, d.Exists("r1"))

	d.Leave("r1", "b")
	assert.False(t, d.Exists("r1"), "room must vanish the instant it empties")
}

func TestRoomDirectory_JoinIdempotent(t *testing.T) {
	d := NewRoomDirectory()
	assert.False(t, d.Join("r1", "a"))
	assert.True(t, d.Join("r1", "a"))
	assert.Equal(t, 1, d.MemberCount("r1"))
}

func TestRoomDirectory_LeaveUnknownIsNoop(t *testing.T) {
	d := NewRoomDirectory()
	assert.False(t, d.Leave("r1", "ghost"))

	d.Join("r1", "a")
	assert.False(t, d.Leave("r1", "ghost"))
	assert.Equal(t, 1, d.MemberCount("r1"))
}

func TestRoomDirectory_MembersSnapshot(t *testing.T) {
	d := NewRoomDirectory()
	d.Join("r1", "a")
	d.Join("r1", "b")
	assert.ElementsMatch(t, []core.SessionID{"a", "b"}, d.Members("r1"))
	assert.Nil(t, d.Members("nope"))
}

// Tracked member count always equals the distinct ids that most recently
// joined without a subsequent leave, for any operation sequence.
func TestRoomDirectory_MembershipModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := NewRoomDirectory()
		model := make(map[string]map[core.SessionID]bool)

		ops := rapid.IntRange(1, 200).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			room := fmt.Sprintf("r%d", rapid.IntRange(0, 2).Draw(t, "room"))
			sid := core.SessionID(fmt.Sprintf("c%d", rapid.IntRange(0, 5).Draw(t, "client")))

			if rapid.Bool().Draw(t, "join") {
				d.Join(domain.RoomID(room), sid)
				if model[room] == nil {
					model[room] = make(map[core.SessionID]bool)
				}
				model[room][sid] = true
			} else {
				d.Leave(domain.RoomID(room), sid)
				delete(model[room], sid)
				if len(model[room]) == 0 {
					delete(model, room)
				}
			}
		}

		for room, members := range model {
			if d.MemberCount(domain.RoomID(room)) != len(members) {
				t.Fatalf("room %s: directory %d members, model %d",
					room, d.MemberCount(domain.RoomID(room)), len(members))
			}
		}
		for i := 0; i < 3; i++ {
			room := fmt.Sprintf("r%d", i)
			if _, ok := model[room]; !ok && d.Exists(domain.RoomID(room)) {
				t.Fatalf("room %s exists in directory but is empty in model", room)
			}
		}
	})
}
