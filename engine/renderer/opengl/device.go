package opengl

import (
	"fmt"
	"image/color"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

// FramebufferSizer reports the drawable size in pixels, which can differ
// from the window size on high density displays.
type FramebufferSizer interface {
	FramebufferSize() (width, height int)
}

type Options struct {
	// DisableVertexArrays forces attribute re-specification on every flush.
	// A single shared vertex array stays bound underneath, which core
	// profiles require for any attribute pointer or draw.
	DisableVertexArrays bool
	ClearColor          color.Color
}

// OpenGLDevice implements renderer.Device on top of an OpenGL 3.3 core
// context. The context must be current on the calling thread.
type OpenGLDevice struct {
	surface      FramebufferSizer
	vertexArrays bool
	sharedVAO    uint32
	clearColor   [4]float32
	version      string
}

var _ renderer.Device = (*OpenGLDevice)(nil)

func New(surface FramebufferSizer, opts Options) (*OpenGLDevice, error) {
	if err := gl.Init(); err != nil {
		core.LogError("failed to initialize OpenGL: %s", err)
		return nil, err
	}

	var major int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)

	perRenderer, shared := vertexArrayMode(major, opts.DisableVertexArrays)
	d := &OpenGLDevice{
		surface:      surface,
		vertexArrays: perRenderer,
		version:      gl.GoStr(gl.GetString(gl.VERSION)),
		clearColor:   [4]float32{0, 0, 0, 1},
	}
	if opts.ClearColor != nil {
		d.SetClearColor(opts.ClearColor)
	}
	core.LogInfo("OpenGL %s on %s", d.version, gl.GoStr(gl.GetString(gl.RENDERER)))

	if shared {
		gl.GenVertexArrays(1, &d.sharedVAO)
		gl.BindVertexArray(d.sharedVAO)
	}

	gl.Disable(gl.DEPTH_TEST)
	width, height := surface.FramebufferSize()
	d.Viewport(width, height)
	return d, nil
}

// vertexArrayMode decides whether renderers get their own vertex arrays or
// the device keeps one shared array bound for them.
func vertexArrayMode(major int32, disabled bool) (perRenderer, shared bool) {
	if major < 3 {
		return false, false
	}
	if disabled {
		return false, true
	}
	return true, false
}

// Release deletes the objects the device owns itself. Renderers must be
// disposed first.
func (d *OpenGLDevice) Release() {
	if d.sharedVAO != 0 {
		gl.BindVertexArray(0)
		gl.DeleteVertexArrays(1, &d.sharedVAO)
		d.sharedVAO = 0
	}
}

func (d *OpenGLDevice) Version() string {
	return d.version
}

func (d *OpenGLDevice) SetClearColor(c color.Color) {
	r, g, b, a := c.RGBA()
	d.clearColor = [4]float32{float32(r) / 0xffff, float32(g) / 0xffff, float32(b) / 0xffff, float32(a) / 0xffff}
}

func (d *OpenGLDevice) Clear() {
	gl.ClearColor(d.clearColor[0], d.clearColor[1], d.clearColor[2], d.clearColor[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *OpenGLDevice) FramebufferSize() (int, int) {
	return d.surface.FramebufferSize()
}

func (d *OpenGLDevice) EnableAlphaBlending() {
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
}

func (d *OpenGLDevice) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *OpenGLDevice) CreateVertexArray() (renderer.VertexArray, error) {
	if !d.vertexArrays {
		return nil, core.ErrVertexArrayUnsupported
	}
	vao := &VertexArray{}
	gl.GenVertexArrays(1, &vao.handle)
	if vao.handle == 0 {
		return nil, fmt.Errorf("glGenVertexArrays returned no name (%s): %w", errorString(gl.GetError()), core.ErrVertexArrayUnsupported)
	}
	return vao, nil
}

// CreateBuffer reserves sizeInBytes of dynamic array buffer storage without
// uploading anything.
func (d *OpenGLDevice) CreateBuffer(sizeInBytes int) (renderer.Buffer, error) {
	b := &Buffer{size: sizeInBytes}
	gl.GenBuffers(1, &b.handle)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.handle)
	gl.BufferData(gl.ARRAY_BUFFER, sizeInBytes, nil, gl.DYNAMIC_DRAW)
	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &b.handle)
		return nil, fmt.Errorf("failed to reserve %d bytes of vertex storage: %s", sizeInBytes, errorString(code))
	}
	return b, nil
}

func (d *OpenGLDevice) DrawTriangles(first, count int32) {
	gl.DrawArrays(gl.TRIANGLES, first, count)
}
