package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

type Shader struct {
	handle uint32
	stage  renderer.ShaderStage
}

func (s *Shader) Delete() {
	if s.handle != 0 {
		gl.DeleteShader(s.handle)
		s.handle = 0
	}
}

func (d *OpenGLDevice) CompileShader(stage renderer.ShaderStage, source string) (renderer.Shader, error) {
	var shaderType uint32
	switch stage {
	case renderer.ShaderStageVertex:
		shaderType = gl.VERTEX_SHADER
	case renderer.ShaderStageFragment:
		shaderType = gl.FRAGMENT_SHADER
	default:
		return nil, fmt.Errorf("unknown shader stage %d: %w", stage, core.ErrShaderCompile)
	}

	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return nil, fmt.Errorf("%w: %s", core.ErrShaderCompile, strings.TrimRight(log, "\x00\n"))
	}
	return &Shader{handle: shader, stage: stage}, nil
}

// LinkProgram links both stages and binds output to color number 0.
func (d *OpenGLDevice) LinkProgram(vertex, fragment renderer.Shader, output string) (renderer.Program, error) {
	vs, ok := vertex.(*Shader)
	if !ok {
		return nil, fmt.Errorf("vertex shader of type %T: %w", vertex, core.ErrShaderLink)
	}
	fs, ok := fragment.(*Shader)
	if !ok {
		return nil, fmt.Errorf("fragment shader of type %T: %w", fragment, core.ErrShaderLink)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs.handle)
	gl.AttachShader(program, fs.handle)
	gl.BindFragDataLocation(program, 0, gl.Str(output+"\x00"))
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return nil, fmt.Errorf("%w: %s", core.ErrShaderLink, strings.TrimRight(log, "\x00\n"))
	}

	gl.DetachShader(program, vs.handle)
	gl.DetachShader(program, fs.handle)
	return &Program{handle: program}, nil
}

type Program struct {
	handle uint32
}

func (p *Program) Use() {
	gl.UseProgram(p.handle)
}

func (p *Program) AttributeLocation(name string) int32 {
	return gl.GetAttribLocation(p.handle, gl.Str(name+"\x00"))
}

func (p *Program) UniformLocation(name string) int32 {
	return gl.GetUniformLocation(p.handle, gl.Str(name+"\x00"))
}

func (p *Program) EnableVertexAttribute(location int32) {
	gl.EnableVertexAttribArray(uint32(location))
}

// PointVertexAttribute describes float lanes read from the bound array buffer.
func (p *Program) PointVertexAttribute(location int32, components, stride, offset int32) {
	gl.VertexAttribPointer(uint32(location), components, gl.FLOAT, false, stride, gl.PtrOffset(int(offset)))
}

func (p *Program) SetUniformInt(location int32, value int32) {
	gl.Uniform1i(location, value)
}

func (p *Program) SetUniformMat4(location int32, value math.Mat4) {
	gl.UniformMatrix4fv(location, 1, false, &value.Data[0])
}

func (p *Program) Delete() {
	if p.handle != 0 {
		gl.DeleteProgram(p.handle)
		p.handle = 0
	}
}
