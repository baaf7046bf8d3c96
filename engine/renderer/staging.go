package renderer

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/core"
)

// StagingBuffer is the CPU side of a batch: a fixed-capacity run of
// interleaved vertex lanes. Only the written prefix is ever uploaded.
type StagingBuffer struct {
	lanes    []float32
	capacity int
}

// NewStagingBuffer allocates room for capacity vertices.
func NewStagingBuffer(capacity int) *StagingBuffer {
	return &StagingBuffer{
		lanes:    make([]float32, 0, capacity*VertexLanes),
		capacity: capacity,
	}
}

// Append writes one vertex at the cursor.
func (b *StagingBuffer) Append(v Vertex) error {
	if b.Remaining() < 1 {
		return fmt.Errorf("append to a full staging buffer of %d vertices: %w", b.capacity, core.ErrCapacityExceeded)
	}
	b.lanes = v.appendLanes(b.lanes)
	return nil
}

// Reset moves the cursor back to the start. The storage is kept as is.
func (b *StagingBuffer) Reset() {
	b.lanes = b.lanes[:0]
}

// View returns the written prefix. Its capacity is clipped so appending to
// it can never write into the staging storage.
func (b *StagingBuffer) View() []float32 {
	n := len(b.lanes)
	return b.lanes[:n:n]
}

// Len is the number of vertices written since the last Reset.
func (b *StagingBuffer) Len() int {
	return len(b.lanes) / VertexLanes
}

func (b *StagingBuffer) Cap() int {
	return b.capacity
}

func (b *StagingBuffer) Remaining() int {
	return b.capacity - b.Len()
}

// SizeInBytes is the size of the whole storage, written or not.
func (b *StagingBuffer) SizeInBytes() int {
	return b.capacity * int(VertexStride)
}
