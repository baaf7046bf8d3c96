package renderer

import (
	"image/color"

	"github.com/spaghettifunk/anima2d/engine/math"
)

// Quad is one textured rectangle to draw. Corners start bottom left and go
// clockwise: bottom left, top left, top right, bottom right.
type Quad struct {
	Corners [4]math.Vec2
	// TexRect spans (tx1, ty1) at the first corner to (tx2, ty2) at the third.
	TexRect math.Extents2D
	// Tint defaults to white when nil.
	Tint color.Color
	// PosInGame is shared by all corners; nil means NoPosInGame.
	PosInGame *math.Vec2
}

// FullTexRect covers the whole texture.
var FullTexRect = math.NewExtents2D(0, 0, 1, 1)

// NewRectQuad builds an axis aligned quad with its bottom left corner at (x, y).
func NewRectQuad(x, y, width, height float32, texRect math.Extents2D, tint color.Color) Quad {
	return Quad{
		Corners: [4]math.Vec2{
			math.NewVec2(x, y),
			math.NewVec2(x, y+height),
			math.NewVec2(x+width, y+height),
			math.NewVec2(x+width, y),
		},
		TexRect: texRect,
		Tint:    tint,
	}
}

// colourLanes turns any color into raw 0-255 float channels, not normalized.
// The sprite shader divides by 255.
func colourLanes(c color.Color) math.Vec4 {
	if c == nil {
		c = color.White
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return math.NewVec4Create(float32(n.R), float32(n.G), float32(n.B), float32(n.A))
}
