package app

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhKirti62/interview-signaling/internal/domain"
)

func TestEventBuffer_AppendAndSince(t *testing.T) {
	b := NewEventBuffer(10)
	b.Append("r1", domain.EvtChat, json.RawMessage(`{"n":1}`), "")
	b.Append("r1", domain.EvtChat, json.RawMessage(`{"n":2}`), "")
	b.Append("r1", domain.EvtChat, json.RawMessage(`{"n":3}`), "")

	all := b.Since("r1", 0)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].Seq)
	assert.Equal(t, int64(3), all[2].Seq)

	tail := b.Since("r1", 2)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(3), tail[0].Seq)

	assert.Empty(t, b.Since("r1", 3))
	assert.Nil(t, b.Since("unknown", 0))
}

func TestEventBuffer_EvictsOldestPastCap(t *testing.T) {
	b := NewEventBuffer(50)
	for i := 1; i <= 50; i++ {
		b.Append("r1", domain.EvtChat, json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)), "")
	}
	require.Len(t, b.Since("r1", 0), 50)

	// One past capacity evicts the oldest.
	b.Append("r1", domain.EvtChat, json.RawMessage(`{"n":51}`), "")

	got := b.Since("r1", 0)
	require.Len(t, got, 50)
	assert.Equal(t, int64(2), got[0].Seq, "seq 1 must be evicted")
	assert.Equal(t, int64(51), got[49].Seq)

	// Cursor just below the new oldest returns exactly the retained 50.
	window := b.Since("r1", got[0].Seq-1)
	assert.Len(t, window, 50)
}

func TestEventBuffer_TimestampsNonDecreasing(t *testing.T) {
	b := NewEventBuffer(10)
	now := time.Unix(100, 0)
	b.now = func() time.Time { return now }

	b.Append("r1", domain.EvtChat, nil, "")
	now = now.Add(time.Second)
	b.Append("r1", domain.EvtChat, nil, "")

	got := b.Since("r1", 0)
	require.Len(t, got, 2)
	assert.LessOrEqual(t, got[0].Timestamp, got[1].Timestamp)
}

func TestEventBuffer_TargetedEventCarriesTarget(t *testing.T) {
	b := NewEventBuffer(10)
	b.Append("r1", domain.EvtSignaling, json.RawMessage(`{}`), "peer-y")
	got := b.Since("r1", 0)
	require.Len(t, got, 1)
	assert.Equal(t, domain.UserID("peer-y"), got[0].TargetUserID)
}

func TestEventBuffer_Drop(t *testing.T) {
	b := NewEventBuffer(10)
	b.Append("r1", domain.EvtChat, nil, "")
	b.Drop("r1")
	assert.Nil(t, b.Since("r1", 0))
}

func TestEventBuffer_RoomsAreIndependent(t *testing.T) {
	b := NewEventBuffer(10)
	b.Append("r1", domain.EvtChat, nil, "")
	b.Append("r2", domain.EvtChat, nil, "")
	b.Append("r2", domain.EvtChat, nil, "")

	assert.Len(t, b.Since("r1", 0), 1)
	assert.Len(t, b.Since("r2", 0), 2)
	// Sequences are per room.
	assert.Equal(t, int64(1), b.Since("r1", 0)[0].Seq)
}
