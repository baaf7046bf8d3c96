package text

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/resources"
)

// FallbackRune is drawn for code points the font does not have.
const FallbackRune = '?'

type Glyph struct {
	X, Y, Width, Height float32
	XOffset, YOffset    float32
	XAdvance            float32
	Page                int
}

type kerningPair struct {
	first, second rune
}

// Font is a bitmap font whose first page lives in Texture. The atlas is
// expected flipped, first pixel row at the bottom.
type Font struct {
	Face        string
	Size        float32
	LineHeight  float32
	Baseline    float32
	AtlasWidth  float32
	AtlasHeight float32
	TabAdvance  float32
	Texture     renderer.Texture

	glyphs   map[rune]Glyph
	kernings map[kerningPair]float32
}

// FromResource builds a font from imported descriptor data and the texture
// holding its page 0.
func FromResource(data *resources.FontData, page renderer.Texture) (*Font, error) {
	if data.AtlasSizeX <= 0 || data.AtlasSizeY <= 0 {
		return nil, fmt.Errorf("font %q has an empty atlas %dx%d", data.Face, data.AtlasSizeX, data.AtlasSizeY)
	}
	f := &Font{
		Face:        data.Face,
		Size:        float32(data.Size),
		LineHeight:  float32(data.LineHeight),
		Baseline:    float32(data.Baseline),
		AtlasWidth:  float32(data.AtlasSizeX),
		AtlasHeight: float32(data.AtlasSizeY),
		TabAdvance:  data.TabXAdvance,
		Texture:     page,
		glyphs:      make(map[rune]Glyph, len(data.Glyphs)),
		kernings:    make(map[kerningPair]float32, len(data.Kernings)),
	}
	for _, g := range data.Glyphs {
		f.glyphs[rune(g.Codepoint)] = Glyph{
			X:        float32(g.X),
			Y:        float32(g.Y),
			Width:    float32(g.Width),
			Height:   float32(g.Height),
			XOffset:  float32(g.XOffset),
			YOffset:  float32(g.YOffset),
			XAdvance: float32(g.XAdvance),
			Page:     int(g.PageID),
		}
	}
	for _, k := range data.Kernings {
		f.kernings[kerningPair{rune(k.Codepoint0), rune(k.Codepoint1)}] = float32(k.Amount)
	}
	return f, nil
}

// Glyph returns the glyph for r, falling back to FallbackRune.
func (f *Font) Glyph(r rune) (Glyph, bool) {
	if g, ok := f.glyphs[r]; ok {
		return g, true
	}
	g, ok := f.glyphs[FallbackRune]
	return g, ok
}

func (f *Font) Kerning(first, second rune) float32 {
	return f.kernings[kerningPair{first, second}]
}
