package text

import (
	"image/color"

	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

// QuadDrawer is where glyph quads go; *renderer.Renderer is one.
type QuadDrawer interface {
	DrawQuad(q renderer.Quad) error
}

// Draw lays text out starting with the top left corner of the first line at
// (x, y), y growing upward, and draws one quad per visible glyph. The font
// texture must be bound by the caller. Glyphs on pages other than 0 are
// skipped.
func Draw(dst QuadDrawer, font *Font, text string, x, y float32, tint color.Color) error {
	var err error
	layout(font, text, func(g Glyph, penX, penY float32) {
		if err != nil || g.Page != 0 || g.Width == 0 || g.Height == 0 {
			return
		}
		left := penX + g.XOffset
		top := penY - g.YOffset
		bottom := top - g.Height

		// Glyph rectangles reaching past the atlas edge are cut at it.
		texRect := math.NewExtents2D(
			math.Clamp(g.X/font.AtlasWidth, 0, 1),
			math.Clamp(1-(g.Y+g.Height)/font.AtlasHeight, 0, 1),
			math.Clamp((g.X+g.Width)/font.AtlasWidth, 0, 1),
			math.Clamp(1-g.Y/font.AtlasHeight, 0, 1),
		)
		err = dst.DrawQuad(renderer.NewRectQuad(left, bottom, g.Width, g.Height, texRect, tint))
	}, x, y)
	return err
}

// Measure returns the width of the longest line and the height of all lines.
func Measure(font *Font, text string) (width, height float32) {
	if text == "" {
		return 0, 0
	}
	lines := float32(1)
	for _, r := range text {
		if r == '\n' {
			lines++
		}
	}
	end := layout(font, text, func(g Glyph, penX, _ float32) {
		if right := penX + g.XAdvance; right > width {
			width = right
		}
	}, 0, 0)
	if end > width {
		width = end
	}
	return width, lines * font.LineHeight
}

// layout walks the text and calls emit with the pen position of every
// glyph. It returns the final pen x.
func layout(font *Font, text string, emit func(g Glyph, penX, penY float32), x, y float32) float32 {
	penX, penY := x, y
	var prev rune = -1
	for _, r := range text {
		switch r {
		case '\n':
			penX = x
			penY -= font.LineHeight
			prev = -1
			continue
		case '\r':
			continue
		case '\t':
			penX += font.TabAdvance
			prev = -1
			continue
		}

		g, ok := font.Glyph(r)
		if !ok {
			prev = -1
			continue
		}
		if prev >= 0 {
			penX += font.Kerning(prev, r)
		}
		emit(g, penX, penY)
		penX += g.XAdvance
		prev = r
	}
	return penX
}
