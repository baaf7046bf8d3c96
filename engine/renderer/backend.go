package renderer

import "github.com/spaghettifunk/anima2d/engine/math"

type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// Surface is the framebuffer the batches end up in.
type Surface interface {
	Clear()
	FramebufferSize() (width, height int)
}

// Buffer is device-resident vertex storage.
type Buffer interface {
	Bind()
	// UploadSubData overwrites part of the buffer starting at offset bytes,
	// without reallocating the storage. Writing past the end is an error.
	UploadSubData(offset int, data []float32) error
	Delete()
}

// VertexArray remembers attribute bindings between draws.
type VertexArray interface {
	Bind()
	Delete()
}

type Shader interface {
	Delete()
}

// Program is a linked shader pipeline. Locations are -1 when the program
// does not expose the requested name.
type Program interface {
	Use()
	AttributeLocation(name string) int32
	UniformLocation(name string) int32
	EnableVertexAttribute(location int32)
	PointVertexAttribute(location int32, components, stride, offset int32)
	SetUniformInt(location int32, value int32)
	SetUniformMat4(location int32, value math.Mat4)
	Delete()
}

// Texture is all the batch renderer knows about an image: its size.
type Texture interface {
	Width() int
	Height() int
}

// TextureHandle is a texture living on the device.
type TextureHandle interface {
	Texture
	Bind()
	Delete()
}

// Device is the graphics API the renderer drives. Every call must happen on
// the thread owning the context.
type Device interface {
	Surface
	EnableAlphaBlending()
	Viewport(width, height int)
	// CreateVertexArray returns core.ErrVertexArrayUnsupported when the
	// device cannot keep attribute bindings.
	CreateVertexArray() (VertexArray, error)
	CreateBuffer(sizeInBytes int) (Buffer, error)
	CompileShader(stage ShaderStage, source string) (Shader, error)
	// LinkProgram links both stages and binds output to fragment data location 0.
	LinkProgram(vertex, fragment Shader, output string) (Program, error)
	DrawTriangles(first, count int32)
	CreateTexture(width, height int, pixels []uint8) (TextureHandle, error)
}
