package renderer

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
)

// Names the sprite shaders are written against.
const (
	FragmentOutput     = "fragColor"
	UniformTexture     = "texImage"
	UniformModel       = "model"
	UniformView        = "view"
	UniformProjection  = "projection"
	defaultTextureUnit = 0
)

// Config holds the renderer settings fixed at New.
type Config struct {
	// Staging capacity in vertices. Zero means DefaultCapacity.
	Capacity int
	// LegacyScaledHeight makes DrawTextureScaled place the top edge at
	// height*scaleY instead of y + height*scaleY, ignoring y, the way the
	// first version of the engine drew it.
	LegacyScaledHeight bool
}

// Stats counts the work done since the last Begin.
type Stats struct {
	Quads           int
	Vertices        int
	DrawCalls       int
	ImplicitFlushes int
}

// Renderer batches textured quads into as few draw calls as possible.
//
// Usage is Init once, then any number of Begin, Draw*, End sequences, then
// Dispose once. Dispose is meant to be called a single time per Init. All
// methods must run on the thread that owns the graphics context.
type Renderer struct {
	device Device
	config Config

	staging *StagingBuffer
	vao     VertexArray
	vbo     Buffer
	program Program

	initialized bool
	drawing     bool
	numVertices int
	stats       Stats

	projectionLocation int32
}

// New returns an uninitialized renderer drawing through device.
func New(device Device, config Config) *Renderer {
	if config.Capacity == 0 {
		config.Capacity = DefaultCapacity
	}
	return &Renderer{
		device: device,
		config: config,
	}
}

// Init enables blending, reserves the vertex storage on both sides, builds
// the shader program and sets the static uniforms. On error everything
// created so far is released and the renderer stays uninitialized.
func (r *Renderer) Init(fragmentSource, vertexSource string) (err error) {
	if r.initialized {
		return core.ErrAlreadyInitialized
	}
	if r.config.Capacity < QuadVertices {
		return fmt.Errorf("capacity of %d vertices cannot hold a single quad: %w", r.config.Capacity, core.ErrCapacityExceeded)
	}

	defer func() {
		if err != nil {
			r.release()
		}
	}()

	r.device.EnableAlphaBlending()

	vao, err := r.device.CreateVertexArray()
	switch {
	case err == nil:
		r.vao = vao
		r.vao.Bind()
	case errors.Is(err, core.ErrVertexArrayUnsupported):
		core.LogDebug("vertex array objects unavailable, attributes are specified on every flush")
	default:
		return err
	}

	r.staging = NewStagingBuffer(r.config.Capacity)

	// Upload nothing, just reserve the storage.
	r.vbo, err = r.device.CreateBuffer(r.staging.SizeInBytes())
	if err != nil {
		return err
	}
	r.vbo.Bind()

	r.program, err = r.buildProgram(fragmentSource, vertexSource)
	if err != nil {
		return err
	}
	r.program.Use()

	r.configureProgram()

	r.numVertices = 0
	r.drawing = false
	r.initialized = true

	core.LogInfo("batch renderer initialized with room for %d vertices", r.config.Capacity)
	return nil
}

func (r *Renderer) buildProgram(fragmentSource, vertexSource string) (Program, error) {
	vertexShader, err := r.device.CompileShader(ShaderStageVertex, vertexSource)
	if err != nil {
		return nil, fmt.Errorf("%s shader: %w", ShaderStageVertex, err)
	}
	defer vertexShader.Delete()

	fragmentShader, err := r.device.CompileShader(ShaderStageFragment, fragmentSource)
	if err != nil {
		return nil, fmt.Errorf("%s shader: %w", ShaderStageFragment, err)
	}
	defer fragmentShader.Delete()

	return r.device.LinkProgram(vertexShader, fragmentShader, FragmentOutput)
}

// configureProgram points the attributes and sets every uniform of the
// current program. The program must be in use.
func (r *Renderer) configureProgram() {
	if r.vao != nil {
		r.vao.Bind()
	}
	r.vbo.Bind()
	r.specifyVertexAttributes()

	r.program.SetUniformInt(r.program.UniformLocation(UniformTexture), defaultTextureUnit)
	r.program.SetUniformMat4(r.program.UniformLocation(UniformModel), math.NewMat4Identity())
	r.program.SetUniformMat4(r.program.UniformLocation(UniformView), math.NewMat4Identity())

	r.projectionLocation = r.program.UniformLocation(UniformProjection)
	width, height := r.device.FramebufferSize()
	r.setProjection(width, height)
}

func (r *Renderer) setProjection(width, height int) {
	projection := math.NewMat4Orthographic(0, float32(width), 0, float32(height), -1, 1)
	r.program.SetUniformMat4(r.projectionLocation, projection)
}

func (r *Renderer) specifyVertexAttributes() {
	for _, attribute := range VertexLayout {
		location := r.program.AttributeLocation(attribute.Name)
		if location < 0 {
			core.LogWarn("shader program has no `%s` attribute, skipping it", attribute.Name)
			continue
		}
		r.program.EnableVertexAttribute(location)
		r.program.PointVertexAttribute(location, attribute.Components, VertexStride, attribute.Offset)
	}
}

// Begin opens a batch.
func (r *Renderer) Begin() error {
	if !r.initialized {
		return core.ErrNotInitialized
	}
	if r.drawing {
		return core.ErrAlreadyDrawing
	}
	r.drawing = true
	r.numVertices = 0
	r.staging.Reset()
	r.stats = Stats{}
	return nil
}

// End closes the batch and always flushes, even when nothing is pending.
func (r *Renderer) End() error {
	if !r.initialized {
		return core.ErrNotInitialized
	}
	if !r.drawing {
		return core.ErrNotDrawing
	}
	r.drawing = false
	return r.flush()
}

// Flush draws whatever is pending. It does not touch the Begin/End state and
// does nothing when no vertex is pending.
func (r *Renderer) Flush() error {
	if !r.initialized {
		return core.ErrNotInitialized
	}
	return r.flush()
}

// flush draws the pending vertices. A failed upload drops them without
// drawing.
func (r *Renderer) flush() error {
	if r.numVertices == 0 {
		return nil
	}
	vertices := r.staging.View()

	if r.vao != nil {
		r.vao.Bind()
	} else {
		r.vbo.Bind()
		r.specifyVertexAttributes()
	}
	r.program.Use()

	// Upload the new vertex data
	r.vbo.Bind()
	err := r.vbo.UploadSubData(0, vertices)
	if err == nil {
		r.device.DrawTriangles(0, int32(r.numVertices))
		r.stats.DrawCalls++
	}

	r.staging.Reset()
	r.numVertices = 0
	if err != nil {
		return fmt.Errorf("vertex upload failed, %d vertices dropped: %w", len(vertices)/VertexLanes, err)
	}
	return nil
}

// Clear clears the draw surface.
func (r *Renderer) Clear() error {
	if !r.initialized {
		return core.ErrNotInitialized
	}
	r.device.Clear()
	return nil
}

// DrawTexture draws the whole texture at its native size with its bottom
// left corner at (x, y).
func (r *Renderer) DrawTexture(t Texture, x, y float32) error {
	x2 := x + float32(t.Width())
	y2 := y + float32(t.Height())
	return r.emitQuad(x, y, x, y2, x2, y2, x2, y, 0, 0, 1, 1, color.White, NoPosInGame)
}

// DrawTextureColored draws the whole texture tinted by c.
func (r *Renderer) DrawTextureColored(t Texture, x, y float32, c color.Color) error {
	x2 := x + float32(t.Width())
	y2 := y + float32(t.Height())
	return r.emitQuad(x, y, x, y2, x2, y2, x2, y, 0, 0, 1, 1, c, NoPosInGame)
}

// DrawTextureScaled draws the whole texture scaled by scaleX and scaleY.
// With Config.LegacyScaledHeight the top edge is height*scaleY, not offset by y.
func (r *Renderer) DrawTextureScaled(t Texture, x, y, scaleX, scaleY float32) error {
	x2 := x + float32(t.Width())*scaleX
	y2 := y + float32(t.Height())*scaleY
	if r.config.LegacyScaledHeight {
		y2 = float32(t.Height()) * scaleY
	}
	return r.emitQuad(x, y, x, y2, x2, y2, x2, y, 0, 0, 1, 1, color.White, NoPosInGame)
}

// DrawQuad appends an arbitrary quad.
func (r *Renderer) DrawQuad(q Quad) error {
	posInGame := NoPosInGame
	if q.PosInGame != nil {
		posInGame = *q.PosInGame
	}
	c := q.Corners
	return r.emitQuad(
		c[0].X, c[0].Y, c[1].X, c[1].Y, c[2].X, c[2].Y, c[3].X, c[3].Y,
		q.TexRect.Min.X, q.TexRect.Min.Y, q.TexRect.Max.X, q.TexRect.Max.Y,
		q.Tint, posInGame,
	)
}

// emitQuad writes the two triangles v1 v2 v3 and v1 v4 v3, flushing first
// when they do not fit.
func (r *Renderer) emitQuad(x1, y1, x2, y2, x3, y3, x4, y4, tx1, ty1, tx2, ty2 float32, tint color.Color, posInGame math.Vec2) error {
	if !r.initialized {
		return core.ErrNotInitialized
	}
	if !r.drawing {
		return core.ErrNotDrawing
	}
	if r.staging.Cap() < QuadVertices {
		return fmt.Errorf("quad needs %d vertices, buffer holds %d: %w", QuadVertices, r.staging.Cap(), core.ErrCapacityExceeded)
	}

	if r.staging.Remaining() < QuadVertices {
		// We need more space in the buffer, so flush it
		if err := r.flush(); err != nil {
			return err
		}
		r.stats.ImplicitFlushes++
	}

	colour := colourLanes(tint)
	v1 := Vertex{Position: math.NewVec2(x1, y1), Colour: colour, Texcoord: math.NewVec2(tx1, ty1), PosInGame: posInGame}
	v2 := Vertex{Position: math.NewVec2(x2, y2), Colour: colour, Texcoord: math.NewVec2(tx1, ty2), PosInGame: posInGame}
	v3 := Vertex{Position: math.NewVec2(x3, y3), Colour: colour, Texcoord: math.NewVec2(tx2, ty2), PosInGame: posInGame}
	v4 := Vertex{Position: math.NewVec2(x4, y4), Colour: colour, Texcoord: math.NewVec2(tx2, ty1), PosInGame: posInGame}

	for _, v := range [QuadVertices]Vertex{v1, v2, v3, v1, v4, v3} {
		if err := r.staging.Append(v); err != nil {
			return err
		}
	}
	r.numVertices += QuadVertices
	r.stats.Quads++
	r.stats.Vertices += QuadVertices
	return nil
}

// Resize points the projection at a new framebuffer size. Only valid between batches.
func (r *Renderer) Resize(width, height int) error {
	if !r.initialized {
		return core.ErrNotInitialized
	}
	if r.drawing {
		return core.ErrAlreadyDrawing
	}
	r.device.Viewport(width, height)
	r.program.Use()
	r.setProjection(width, height)
	return nil
}

// ReloadShaders swaps in a program built from new sources. On failure the
// current program stays in place. Only valid between batches.
func (r *Renderer) ReloadShaders(fragmentSource, vertexSource string) error {
	if !r.initialized {
		return core.ErrNotInitialized
	}
	if r.drawing {
		return core.ErrAlreadyDrawing
	}
	program, err := r.buildProgram(fragmentSource, vertexSource)
	if err != nil {
		return err
	}
	r.program.Delete()
	r.program = program
	r.program.Use()
	r.configureProgram()
	core.LogInfo("sprite shaders reloaded")
	return nil
}

// Stats returns the counters of the current or last batch.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// IsDrawing reports whether a Begin is waiting for its End.
func (r *Renderer) IsDrawing() bool {
	return r.drawing
}

// Dispose releases the staging buffer and every device object. Calling it
// twice without a new Init returns ErrNotInitialized.
func (r *Renderer) Dispose() error {
	if !r.initialized {
		return core.ErrNotInitialized
	}
	if r.drawing {
		core.LogWarn("disposing the renderer in the middle of a batch, %d vertices dropped", r.numVertices)
	}
	r.release()
	return nil
}

func (r *Renderer) release() {
	r.staging = nil
	if r.vao != nil {
		r.vao.Delete()
		r.vao = nil
	}
	if r.vbo != nil {
		r.vbo.Delete()
		r.vbo = nil
	}
	if r.program != nil {
		r.program.Delete()
		r.program = nil
	}
	r.initialized = false
	r.drawing = false
	r.numVertices = 0
}
