package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

// Texture is an RGBA8 2D texture sampled from unit 0.
type Texture struct {
	handle        uint32
	width, height int
}

// CreateTexture uploads tightly packed RGBA8 pixels, first row at the bottom.
func (d *OpenGLDevice) CreateTexture(width, height int, pixels []uint8) (renderer.TextureHandle, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("texture of %dx%d needs %d bytes, got %d", width, height, width*height*4, len(pixels))
	}

	t := &Texture{width: width, height: height}
	gl.GenTextures(1, &t.handle)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, t.handle)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &t.handle)
		return nil, fmt.Errorf("failed to upload %dx%d texture: %s", width, height, errorString(code))
	}
	return t, nil
}

func (t *Texture) Width() int  { return t.width }
func (t *Texture) Height() int { return t.height }

func (t *Texture) Bind() {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, t.handle)
}

func (t *Texture) Delete() {
	if t.handle != 0 {
		gl.DeleteTextures(1, &t.handle)
		t.handle = 0
	}
}
