package renderer

import (
	"unsafe"

	"github.com/spaghettifunk/anima2d/engine/math"
)

const (
	// float32 lanes per vertex
	VertexLanes = 10
	// bytes between two consecutive vertices
	VertexStride = VertexLanes * int32(unsafe.Sizeof(float32(0)))
	// vertices emitted for one quad
	QuadVertices = 6
	// default staging capacity, in vertices
	DefaultCapacity = 4096
)

/**
 * @brief A single sprite vertex. The field order is the attribute layout
 * the sprite shader is written against; see VertexLayout.
 */
type Vertex struct {
	/** @brief Screen position. */
	Position math.Vec2
	/** @brief Colour with raw 0-255 channels. */
	Colour math.Vec4
	/** @brief The texture coordinate of the vertex. */
	Texcoord math.Vec2
	/** @brief Position in game, or NoPosInGame. */
	PosInGame math.Vec2
}

// NoPosInGame tells the shader to fall back to the on-screen position.
var NoPosInGame = math.NewVec2(-1, -1)

// VertexAttribute describes one slot of the interleaved vertex stream.
type VertexAttribute struct {
	Name       string
	Components int32
	Offset     int32
}

// VertexLayout is the stride/offset contract with assets/shaders/sprite.vert.
var VertexLayout = [...]VertexAttribute{
	{Name: "position", Components: 2, Offset: 0},
	{Name: "color", Components: 4, Offset: 8},
	{Name: "texcoord", Components: 2, Offset: 24},
	{Name: "posInGame", Components: 2, Offset: 32},
}

func (v Vertex) appendLanes(dst []float32) []float32 {
	return append(dst,
		v.Position.X, v.Position.Y,
		v.Colour.X, v.Colour.Y, v.Colour.Z, v.Colour.W,
		v.Texcoord.X, v.Texcoord.Y,
		v.PosInGame.X, v.PosInGame.Y,
	)
}

// VertexAt decodes the i-th vertex out of an interleaved lane slice.
func VertexAt(lanes []float32, i int) Vertex {
	l := lanes[i*VertexLanes : (i+1)*VertexLanes]
	return Vertex{
		Position:  math.NewVec2(l[0], l[1]),
		Colour:    math.NewVec4Create(l[2], l[3], l[4], l[5]),
		Texcoord:  math.NewVec2(l[6], l[7]),
		PosInGame: math.NewVec2(l[8], l[9]),
	}
}
