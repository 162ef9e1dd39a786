package ringlog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MMintLab/libfranka/pkg/protocol"
)

func record(b *Buffer, seq uint32) {
	b.Record(
		protocol.State{Seq: seq},
		protocol.Command{Seq: seq, Kind: protocol.KindJointVelocities},
		time.Unix(int64(seq), 0),
	)
}

func TestBufferBelowCapacity(t *testing.T) {
	b := NewBuffer(5)
	for seq := uint32(1); seq <= 3; seq++ {
		record(b, seq)
	}

	assert.Equal(t, 3, b.Len())

	snap := b.Snapshot()
	require.Len(t, snap, 3)
	for i, r := range snap {
		assert.Equal(t, uint32(i+1), r.State.Seq)
	}
}

func TestBufferEvictsOldest(t *testing.T) {
	const capacity = 5
	b := NewBuffer(capacity)

	// N+k records: only the last N survive, in arrival order.
	for seq := uint32(1); seq <= capacity+3; seq++ {
		record(b, seq)
	}

	assert.Equal(t, capacity, b.Len())

	snap := b.Snapshot()
	require.Len(t, snap, capacity)
	for i, r := range snap {
		assert.Equal(t, uint32(i+4), r.State.Seq, "index %d", i)
	}
}

func TestBufferDefaultCapacity(t *testing.T) {
	b := NewBuffer(0)
	assert.Equal(t, DefaultCapacity, b.Cap())
}

func TestWriteCSV(t *testing.T) {
	b := NewBuffer(4)
	record(b, 1)
	record(b, 2)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, b.Snapshot()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3) // header + 2 rows

	assert.True(t, strings.HasPrefix(lines[0], "time,seq,state_time_us,q0"))
	assert.Contains(t, lines[1], "joint_velocities")
}

func TestLogFileName(t *testing.T) {
	id := uuid.MustParse("c9d7d1f2-0000-4000-8000-000000000000")
	at := time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC)

	name := LogFileName(id, at)
	assert.Equal(t, "log-2026-08-24-10-30-00-c9d7d1f2-0000-4000-8000-000000000000.csv", name)
}
