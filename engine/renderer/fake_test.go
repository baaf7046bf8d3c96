package renderer

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
)

// fakeDevice records every call the renderer makes so tests can assert on
// the exact sequence and on the uploaded vertex data.
type fakeDevice struct {
	width, height int

	noVertexArray bool
	failCompile   ShaderStage
	compileFails  bool
	failLink      bool
	missingAttrib string
	failUpload    error

	calls   []string
	draws   []int32
	uploads [][]float32

	blending     bool
	clears       int
	buffers      []*fakeBuffer
	vertexArrays []*fakeVertexArray
	shaders      []*fakeShader
	programs     []*fakeProgram
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{width: 800, height: 600}
}

func (d *fakeDevice) record(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) reset() {
	d.calls = nil
}

func (d *fakeDevice) count(prefix string) int {
	n := 0
	for _, c := range d.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// drawnVertices concatenates the uploaded ranges of all draw calls.
func (d *fakeDevice) drawnVertices() []float32 {
	var out []float32
	for _, u := range d.uploads {
		out = append(out, u...)
	}
	return out
}

func (d *fakeDevice) Clear() {
	d.clears++
	d.record("clear")
}

func (d *fakeDevice) FramebufferSize() (int, int) {
	return d.width, d.height
}

func (d *fakeDevice) EnableAlphaBlending() {
	d.blending = true
	d.record("blend")
}

func (d *fakeDevice) Viewport(width, height int) {
	d.width, d.height = width, height
	d.record("viewport %dx%d", width, height)
}

func (d *fakeDevice) CreateVertexArray() (VertexArray, error) {
	if d.noVertexArray {
		return nil, core.ErrVertexArrayUnsupported
	}
	vao := &fakeVertexArray{device: d}
	d.vertexArrays = append(d.vertexArrays, vao)
	d.record("vao create")
	return vao, nil
}

func (d *fakeDevice) CreateBuffer(size int) (Buffer, error) {
	b := &fakeBuffer{device: d, size: size}
	d.buffers = append(d.buffers, b)
	d.record("buffer create %d", size)
	return b, nil
}

func (d *fakeDevice) CompileShader(stage ShaderStage, source string) (Shader, error) {
	if d.compileFails && stage == d.failCompile {
		return nil, fmt.Errorf("%w: syntax error", core.ErrShaderCompile)
	}
	s := &fakeShader{stage: stage, source: source}
	d.shaders = append(d.shaders, s)
	d.record("compile %s", stage)
	return s, nil
}

func (d *fakeDevice) LinkProgram(vertex, fragment Shader, output string) (Program, error) {
	if d.failLink {
		return nil, fmt.Errorf("%w: mismatched varyings", core.ErrShaderLink)
	}
	p := &fakeProgram{
		device:   d,
		output:   output,
		uniforms: make(map[string]int32),
		ints:     make(map[int32]int32),
		mats:     make(map[int32]math.Mat4),
		pointers: make(map[int32][3]int32),
		enabled:  make(map[int32]bool),
	}
	d.programs = append(d.programs, p)
	d.record("link %s", output)
	return p, nil
}

func (d *fakeDevice) DrawTriangles(first, count int32) {
	d.draws = append(d.draws, count)
	d.record("draw %d %d", first, count)
}

func (d *fakeDevice) CreateTexture(width, height int, pixels []uint8) (TextureHandle, error) {
	return &fakeTexture{w: width, h: height}, nil
}

type fakeBuffer struct {
	device  *fakeDevice
	size    int
	deleted bool
}

func (b *fakeBuffer) Bind() { b.device.record("buffer bind") }

func (b *fakeBuffer) UploadSubData(offset int, data []float32) error {
	if b.device.failUpload != nil {
		b.device.record("upload failed")
		return b.device.failUpload
	}
	cp := make([]float32, len(data))
	copy(cp, data)
	b.device.uploads = append(b.device.uploads, cp)
	b.device.record("upload %d %d", offset, len(data))
	return nil
}

func (b *fakeBuffer) Delete() {
	b.deleted = true
	b.device.record("buffer delete")
}

type fakeVertexArray struct {
	device  *fakeDevice
	deleted bool
}

func (v *fakeVertexArray) Bind() { v.device.record("vao bind") }

func (v *fakeVertexArray) Delete() {
	v.deleted = true
	v.device.record("vao delete")
}

type fakeShader struct {
	stage   ShaderStage
	source  string
	deleted bool
}

func (s *fakeShader) Delete() { s.deleted = true }

type fakeProgram struct {
	device   *fakeDevice
	output   string
	deleted  bool
	uniforms map[string]int32
	ints     map[int32]int32
	mats     map[int32]math.Mat4
	pointers map[int32][3]int32
	enabled  map[int32]bool
}

func (p *fakeProgram) Use() { p.device.record("use") }

func (p *fakeProgram) AttributeLocation(name string) int32 {
	if name == p.device.missingAttrib {
		return -1
	}
	for i, a := range VertexLayout {
		if a.Name == name {
			return int32(i)
		}
	}
	return -1
}

func (p *fakeProgram) UniformLocation(name string) int32 {
	loc, ok := p.uniforms[name]
	if !ok {
		loc = int32(len(p.uniforms) + 10)
		p.uniforms[name] = loc
	}
	return loc
}

func (p *fakeProgram) EnableVertexAttribute(location int32) {
	p.enabled[location] = true
	p.device.record("enable %d", location)
}

func (p *fakeProgram) PointVertexAttribute(location int32, components, stride, offset int32) {
	p.pointers[location] = [3]int32{components, stride, offset}
	p.device.record("pointer %d %d %d %d", location, components, stride, offset)
}

func (p *fakeProgram) SetUniformInt(location int32, value int32) {
	p.ints[location] = value
}

func (p *fakeProgram) SetUniformMat4(location int32, value math.Mat4) {
	p.mats[location] = value
}

func (p *fakeProgram) Delete() {
	p.deleted = true
	p.device.record("program delete")
}

func (p *fakeProgram) uniformMat(name string) math.Mat4 {
	return p.mats[p.uniforms[name]]
}

type fakeTexture struct {
	w, h int
}

func (t *fakeTexture) Width() int  { return t.w }
func (t *fakeTexture) Height() int { return t.h }
func (t *fakeTexture) Bind()       {}
func (t *fakeTexture) Delete()     {}
