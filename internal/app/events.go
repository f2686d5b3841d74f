package app

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/ShubhKirti62/interview-signaling/internal/domain"
)

// DefaultEventBufferCap is the per-room retention window for the polling
// fallback transport.
const DefaultEventBufferCap = 50

// BufferedEvent is one retained fan-out event. Seq is the polling cursor:
// per-room, strictly increasing. TargetUserID is set on unicast events so
// polling clients can filter out traffic addressed to someone else.
type BufferedEvent struct {
	Seq          int64              `json:"seq"`
	Timestamp    int64              `json:"timestamp"`
	Type         domain.MessageType `json:"type"`
	Data         json.RawMessage    `json:"data"`
	TargetUserID domain.UserID      `json:"targetUserId,omitempty"`
}

// EventBuffer keeps a bounded FIFO of events per room for clients that
// cannot hold a persistent connection. Events evicted before being read
// are permanently lost; that is the documented retention contract, not
// an error.
type EventBuffer struct {
	mu    sync.Mutex
	cap   int
	now   func() time.Time
	rooms map[domain.RoomID]*roomLog
}

type roomLog struct {
	seq    int64
	events *queue.Queue
}

func NewEventBuffer(capacity int) *EventBuffer {
	if capacity <= 0 {
		capacity = DefaultEventBufferCap
	}
	return &EventBuffer{
		cap:   capacity,
		now:   time.Now,
		rooms: make(map[domain.RoomID]*roomLog),
	}
}

// Append records one event for the room, evicting the oldest entry once
// the log is full.
func (b *EventBuffer) Append(room domain.RoomID, typ domain.MessageType, data json.RawMessage, target domain.UserID) BufferedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	rl, ok := b.rooms[room]
	if !ok {
		rl = &roomLog{events: queue.New()}
		b.rooms[room] = rl
	}
	rl.seq++
	ev := BufferedEvent{
		Seq:          rl.seq,
		Timestamp:    b.now().UnixMilli(),
		Type:         typ,
		Data:         data,
		TargetUserID: target,
	}
	rl.events.Add(ev)
	for rl.events.Length() > b.cap {
		rl.events.Remove()
	}
	return ev
}

// Since returns all retained events with sequence greater than cursor,
// in append order. A cursor of 0 reads the whole window.
func (b *EventBuffer) Since(room domain.RoomID, cursor int64) []BufferedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	rl, ok := b.rooms[room]
	if !ok {
		return nil
	}
	n := rl.events.Length()
	out := make([]BufferedEvent, 0, n)
	for i := 0; i < n; i++ {
		ev := rl.events.Get(i).(BufferedEvent)
		if ev.Seq > cursor {
			out = append(out, ev)
		}
	}
	return out
}

// Drop discards a room's log. Called when the room itself is deleted.
func (b *EventBuffer) Drop(room domain.RoomID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rooms, room)
}
