package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/anima2d/engine/core"
)

type Buffer struct {
	handle uint32
	size   int
}

func (b *Buffer) Bind() {
	gl.BindBuffer(gl.ARRAY_BUFFER, b.handle)
}

// UploadSubData expects the buffer to be bound.
func (b *Buffer) UploadSubData(offset int, data []float32) error {
	if len(data) == 0 {
		return nil
	}
	size := len(data) * 4
	if offset < 0 || offset+size > b.size {
		return fmt.Errorf("upload of %d bytes at %d overruns a %d bytes buffer: %w", size, offset, b.size, core.ErrCapacityExceeded)
	}
	gl.BufferSubData(gl.ARRAY_BUFFER, offset, size, gl.Ptr(data))
	return nil
}

func (b *Buffer) Delete() {
	if b.handle != 0 {
		gl.DeleteBuffers(1, &b.handle)
		b.handle = 0
	}
}

type VertexArray struct {
	handle uint32
}

func (v *VertexArray) Bind() {
	gl.BindVertexArray(v.handle)
}

func (v *VertexArray) Delete() {
	if v.handle != 0 {
		gl.DeleteVertexArrays(1, &v.handle)
		v.handle = 0
	}
}
