// Package ringlog keeps a fixed-capacity rolling history of the most recent
// control cycles. When an activation fails, the snapshot travels with the
// error so the cycles leading up to the fault can be inspected or exported.
package ringlog

import (
	"time"

	"github.com/MMintLab/libfranka/pkg/protocol"
)

// DefaultCapacity is the number of cycles kept when no capacity is given.
const DefaultCapacity = 50

// Record is one completed control cycle.
type Record struct {
	Time    time.Time
	State   protocol.State
	Command protocol.Command
}

// Buffer is a fixed-capacity FIFO of records. It allocates once at
// construction; recording overwrites the oldest entry when full. It is
// written by the control-loop goroutine only and read only after the loop
// has terminated.
type Buffer struct {
	records []Record
	next    int
	full    bool
}

// NewBuffer creates a buffer holding the given number of records.
// Non-positive capacities fall back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{records: make([]Record, capacity)}
}

// Record appends one cycle, evicting the oldest once at capacity. O(1).
func (b *Buffer) Record(state protocol.State, cmd protocol.Command, at time.Time) {
	b.records[b.next] = Record{Time: at, State: state, Command: cmd}
	b.next++
	if b.next == len(b.records) {
		b.next = 0
		b.full = true
	}
}

// Len returns the number of records currently held.
func (b *Buffer) Len() int {
	if b.full {
		return len(b.records)
	}
	return b.next
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.records) }

// Snapshot returns the current contents, oldest to newest.
func (b *Buffer) Snapshot() []Record {
	out := make([]Record, 0, b.Len())
	if b.full {
		out = append(out, b.records[b.next:]...)
	}
	out = append(out, b.records[:b.next]...)
	return out
}
