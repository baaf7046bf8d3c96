package renderer

import (
	"bytes"
	"errors"
	"image/color"
	"reflect"
	"testing"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
)

const (
	testFragment = "void main() { fragColor = vec4(1.0); }"
	testVertex   = "void main() { gl_Position = vec4(position, 0.0, 1.0); }"
)

func init() {
	core.SetLogOutput(&bytes.Buffer{})
}

func newInitialized(t *testing.T, config Config) (*Renderer, *fakeDevice) {
	t.Helper()
	d := newFakeDevice()
	r := New(d, config)
	if err := r.Init(testFragment, testVertex); err != nil {
		t.Fatalf("Init: %v", err)
	}
	d.reset()
	return r, d
}

func mustBegin(t *testing.T, r *Renderer) {
	t.Helper()
	if err := r.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
}

func mustEnd(t *testing.T, r *Renderer) {
	t.Helper()
	if err := r.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
}

func TestInitSetsUpPipeline(t *testing.T) {
	d := newFakeDevice()
	r := New(d, Config{})
	if err := r.Init(testFragment, testVertex); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if !d.blending {
		t.Error("alpha blending not enabled")
	}
	if len(d.buffers) != 1 || d.buffers[0].size != DefaultCapacity*40 {
		t.Fatalf("buffer allocations = %+v, want one of %d bytes", d.buffers, DefaultCapacity*40)
	}
	if len(d.vertexArrays) != 1 {
		t.Fatalf("vertex arrays = %d, want 1", len(d.vertexArrays))
	}
	if len(d.shaders) != 2 || d.shaders[0].stage != ShaderStageVertex || d.shaders[1].stage != ShaderStageFragment {
		t.Fatalf("compiled shaders = %+v", d.shaders)
	}
	if d.shaders[0].source != testVertex || d.shaders[1].source != testFragment {
		t.Error("shader sources swapped")
	}
	for _, s := range d.shaders {
		if !s.deleted {
			t.Errorf("%s shader not deleted after link", s.stage)
		}
	}

	p := d.programs[0]
	if p.output != "fragColor" {
		t.Errorf("fragment output = %q", p.output)
	}
	if v := p.ints[p.uniforms["texImage"]]; v != 0 {
		t.Errorf("texImage = %d, want 0", v)
	}
	if p.uniformMat("model") != math.NewMat4Identity() || p.uniformMat("view") != math.NewMat4Identity() {
		t.Error("model and view must be identity")
	}
	if got, want := p.uniformMat("projection"), math.NewMat4Orthographic(0, 800, 0, 600, -1, 1); got != want {
		t.Errorf("projection = %v, want %v", got, want)
	}

	for i, a := range VertexLayout {
		loc := int32(i)
		if !p.enabled[loc] {
			t.Errorf("attribute %s not enabled", a.Name)
		}
		if got := p.pointers[loc]; got != [3]int32{a.Components, 40, a.Offset} {
			t.Errorf("attribute %s pointer = %v", a.Name, got)
		}
	}
}

func TestVertexLayoutMatchesStruct(t *testing.T) {
	want := []VertexAttribute{
		{"position", 2, 0},
		{"color", 4, 8},
		{"texcoord", 2, 24},
		{"posInGame", 2, 32},
	}
	if !reflect.DeepEqual(VertexLayout[:], want) {
		t.Fatalf("layout = %+v", VertexLayout)
	}
	if VertexStride != 40 {
		t.Fatalf("stride = %d", VertexStride)
	}

	typ := reflect.TypeOf(Vertex{})
	if typ.Size() != uintptr(VertexStride) {
		t.Fatalf("sizeof(Vertex) = %d", typ.Size())
	}
	for i, a := range VertexLayout {
		f := typ.Field(i)
		if int32(f.Offset) != a.Offset {
			t.Errorf("field %s at %d, layout says %s at %d", f.Name, f.Offset, a.Name, a.Offset)
		}
		if int32(f.Type.Size()/4) != a.Components {
			t.Errorf("field %s has %d lanes, layout says %d", f.Name, f.Type.Size()/4, a.Components)
		}
	}
}

func TestOperationsBeforeInit(t *testing.T) {
	r := New(newFakeDevice(), Config{})
	tex := &fakeTexture{w: 4, h: 4}

	checks := map[string]error{
		"Begin":        r.Begin(),
		"End":          r.End(),
		"Flush":        r.Flush(),
		"Clear":        r.Clear(),
		"DrawTexture":  r.DrawTexture(tex, 0, 0),
		"DrawQuad":     r.DrawQuad(Quad{}),
		"Resize":       r.Resize(10, 10),
		"Reload":       r.ReloadShaders(testFragment, testVertex),
		"Dispose":      r.Dispose(),
		"DrawScaled":   r.DrawTextureScaled(tex, 0, 0, 2, 2),
		"DrawColoured": r.DrawTextureColored(tex, 0, 0, color.Black),
	}
	for name, err := range checks {
		if !errors.Is(err, core.ErrNotInitialized) {
			t.Errorf("%s: got %v, want ErrNotInitialized", name, err)
		}
	}
}

func TestBeginEndGuard(t *testing.T) {
	r, _ := newInitialized(t, Config{})

	if err := r.End(); !errors.Is(err, core.ErrNotDrawing) {
		t.Fatalf("End without Begin: %v", err)
	}
	mustBegin(t, r)
	if err := r.Begin(); !errors.Is(err, core.ErrAlreadyDrawing) {
		t.Fatalf("second Begin: %v", err)
	}
	if !r.IsDrawing() {
		t.Fatal("a failed Begin must not leave the Drawing state")
	}
	mustEnd(t, r)
	if err := r.End(); !errors.Is(err, core.ErrNotDrawing) {
		t.Fatalf("second End: %v", err)
	}
	if err := r.DrawTexture(&fakeTexture{w: 1, h: 1}, 0, 0); !errors.Is(err, core.ErrNotDrawing) {
		t.Fatalf("draw outside a batch: %v", err)
	}
	if err := r.Init(testFragment, testVertex); !errors.Is(err, core.ErrAlreadyInitialized) {
		t.Fatalf("second Init: %v", err)
	}
}

func TestFlushWithNothingPendingIsNoop(t *testing.T) {
	r, d := newInitialized(t, Config{})

	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	mustBegin(t, r)
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	mustEnd(t, r)

	if len(d.calls) != 0 {
		t.Fatalf("device calls = %v, want none", d.calls)
	}
}

func TestFlushDoesNotChangeState(t *testing.T) {
	r, d := newInitialized(t, Config{})
	tex := &fakeTexture{w: 8, h: 8}

	mustBegin(t, r)
	if err := r.DrawTexture(tex, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := r.Flush(); err != nil {
		t.Fatal(err)
	}
	if !r.IsDrawing() {
		t.Fatal("Flush left the Drawing state")
	}
	if err := r.DrawTexture(tex, 8, 0); err != nil {
		t.Fatal(err)
	}
	mustEnd(t, r)

	if !reflect.DeepEqual(d.draws, []int32{6, 6}) {
		t.Fatalf("draws = %v", d.draws)
	}
}

func TestFlushSequence(t *testing.T) {
	r, d := newInitialized(t, Config{})
	mustBegin(t, r)
	if err := r.DrawTexture(&fakeTexture{w: 2, h: 2}, 0, 0); err != nil {
		t.Fatal(err)
	}
	mustEnd(t, r)

	want := []string{"vao bind", "use", "buffer bind", "upload 0 60", "draw 0 6"}
	if !reflect.DeepEqual(d.calls, want) {
		t.Fatalf("calls = %v, want %v", d.calls, want)
	}
}

func TestDrawTextureFixture(t *testing.T) {
	r, d := newInitialized(t, Config{})
	mustBegin(t, r)
	if err := r.DrawTexture(&fakeTexture{w: 32, h: 16}, 10, 20); err != nil {
		t.Fatal(err)
	}
	mustEnd(t, r)

	lanes := d.drawnVertices()
	if len(lanes) != 6*VertexLanes {
		t.Fatalf("uploaded %d lanes", len(lanes))
	}
	white := math.NewVec4Create(255, 255, 255, 255)
	corners := map[math.Vec2]math.Vec2{
		math.NewVec2(10, 20): math.NewVec2(0, 0),
		math.NewVec2(10, 36): math.NewVec2(0, 1),
		math.NewVec2(42, 36): math.NewVec2(1, 1),
		math.NewVec2(42, 20): math.NewVec2(1, 0),
	}
	order := []math.Vec2{
		math.NewVec2(10, 20), math.NewVec2(10, 36), math.NewVec2(42, 36),
		math.NewVec2(10, 20), math.NewVec2(42, 20), math.NewVec2(42, 36),
	}
	for i, pos := range order {
		v := VertexAt(lanes, i)
		if v.Position != pos {
			t.Errorf("vertex %d at %v, want %v", i, v.Position, pos)
		}
		if v.Texcoord != corners[pos] {
			t.Errorf("vertex %d texcoord %v, want %v", i, v.Texcoord, corners[pos])
		}
		if v.Colour != white {
			t.Errorf("vertex %d colour %v", i, v.Colour)
		}
		if v.PosInGame != NoPosInGame {
			t.Errorf("vertex %d posInGame %v", i, v.PosInGame)
		}
	}
}

func TestDrawQuadCarriesTintAndPosInGame(t *testing.T) {
	r, d := newInitialized(t, Config{})
	pig := math.NewVec2(100, 200)
	q := NewRectQuad(0, 0, 4, 4, math.NewExtents2D(0.25, 0.5, 0.75, 1), color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	q.PosInGame = &pig

	mustBegin(t, r)
	if err := r.DrawQuad(q); err != nil {
		t.Fatal(err)
	}
	mustEnd(t, r)

	lanes := d.drawnVertices()
	for i := 0; i < 6; i++ {
		v := VertexAt(lanes, i)
		if v.Colour != math.NewVec4Create(10, 20, 30, 128) {
			t.Errorf("vertex %d colour = %v", i, v.Colour)
		}
		if v.PosInGame != pig {
			t.Errorf("vertex %d posInGame = %v", i, v.PosInGame)
		}
	}
	if tc := VertexAt(lanes, 1).Texcoord; tc != math.NewVec2(0.25, 1) {
		t.Errorf("top left texcoord = %v", tc)
	}
	if tc := VertexAt(lanes, 4).Texcoord; tc != math.NewVec2(0.75, 0.5) {
		t.Errorf("bottom right texcoord = %v", tc)
	}
}

func TestDrawTextureScaled(t *testing.T) {
	tex := &fakeTexture{w: 32, h: 16}
	cases := []struct {
		name   string
		legacy bool
		topY   float32
	}{
		{"corrected", false, 20 + 16*3},
		// The legacy top edge ignores y: 16*3.
		{"legacy", true, 16 * 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, d := newInitialized(t, Config{LegacyScaledHeight: c.legacy})
			mustBegin(t, r)
			if err := r.DrawTextureScaled(tex, 10, 20, 2, 3); err != nil {
				t.Fatal(err)
			}
			mustEnd(t, r)

			topRight := VertexAt(d.drawnVertices(), 2).Position
			if want := math.NewVec2(10+64, c.topY); topRight != want {
				t.Fatalf("top right = %v, want %v", topRight, want)
			}
		})
	}
}

func TestVertexCountConservation(t *testing.T) {
	for _, quads := range []int{0, 1, 2, 3, 7, 50} {
		r, d := newInitialized(t, Config{Capacity: 18})
		mustBegin(t, r)
		for i := 0; i < quads; i++ {
			if err := r.DrawTexture(&fakeTexture{w: 1, h: 1}, float32(i), 0); err != nil {
				t.Fatal(err)
			}
		}
		mustEnd(t, r)

		total := int32(0)
		for _, n := range d.draws {
			if n > 18 {
				t.Fatalf("draw of %d vertices exceeds capacity", n)
			}
			total += n
		}
		if total != int32(6*quads) {
			t.Errorf("%d quads drew %d vertices", quads, total)
		}
		if s := r.Stats(); s.Quads != quads || s.DrawCalls != len(d.draws) {
			t.Errorf("stats = %+v after %d quads and %d draws", s, quads, len(d.draws))
		}
	}
}

func TestOverflowMatchesUnboundedBuffer(t *testing.T) {
	draw := func(r *Renderer) {
		mustBegin(t, r)
		for i := 0; i < 5; i++ {
			q := NewRectQuad(float32(i*10), float32(i), 8, 8, FullTexRect, color.NRGBA{R: uint8(i), A: 255})
			if err := r.DrawQuad(q); err != nil {
				t.Fatal(err)
			}
		}
		mustEnd(t, r)
	}

	small, sd := newInitialized(t, Config{Capacity: 12})
	draw(small)
	big, bd := newInitialized(t, Config{Capacity: 1024})
	draw(big)

	if !reflect.DeepEqual(sd.draws, []int32{12, 12, 6}) {
		t.Fatalf("small buffer draws = %v", sd.draws)
	}
	if !reflect.DeepEqual(bd.draws, []int32{30}) {
		t.Fatalf("big buffer draws = %v", bd.draws)
	}
	if !reflect.DeepEqual(sd.drawnVertices(), bd.drawnVertices()) {
		t.Fatal("flushed data differs from the unbounded batch")
	}
	if s := small.Stats(); s.ImplicitFlushes != 2 || s.DrawCalls != 3 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestLayoutStableAcrossFlushes(t *testing.T) {
	t.Run("vertex array", func(t *testing.T) {
		r, d := newInitialized(t, Config{Capacity: 6})
		mustBegin(t, r)
		for i := 0; i < 4; i++ {
			if err := r.DrawTexture(&fakeTexture{w: 1, h: 1}, 0, 0); err != nil {
				t.Fatal(err)
			}
		}
		mustEnd(t, r)
		if n := d.count("pointer"); n != 0 {
			t.Fatalf("layout re-specified %d times with a vertex array bound", n)
		}
		if n := d.count("vao bind"); n != 4 {
			t.Fatalf("vertex array bound %d times for 4 draws", n)
		}
	})

	t.Run("no vertex array", func(t *testing.T) {
		d := newFakeDevice()
		d.noVertexArray = true
		r := New(d, Config{Capacity: 6})
		if err := r.Init(testFragment, testVertex); err != nil {
			t.Fatal(err)
		}
		p := d.programs[0]
		initial := make(map[int32][3]int32, len(p.pointers))
		for k, v := range p.pointers {
			initial[k] = v
		}
		d.reset()

		mustBegin(t, r)
		for i := 0; i < 3; i++ {
			if err := r.DrawTexture(&fakeTexture{w: 1, h: 1}, 0, 0); err != nil {
				t.Fatal(err)
			}
		}
		mustEnd(t, r)
		if n := d.count("pointer"); n != 3*len(VertexLayout) {
			t.Fatalf("layout specified %d times for 3 draws", n)
		}
		if !reflect.DeepEqual(p.pointers, initial) {
			t.Fatalf("layout drifted: %v vs %v", p.pointers, initial)
		}
	})
}

func TestMissingAttributeIsSkipped(t *testing.T) {
	d := newFakeDevice()
	d.missingAttrib = "posInGame"
	r := New(d, Config{})
	if err := r.Init(testFragment, testVertex); err != nil {
		t.Fatal(err)
	}
	if n := d.count("pointer"); n != len(VertexLayout)-1 {
		t.Fatalf("pointers = %d", n)
	}
	if n := d.count("enable -1"); n != 0 {
		t.Fatal("enabled a missing attribute")
	}
}

func TestInitFailuresReleaseEverything(t *testing.T) {
	cases := []struct {
		name  string
		setup func(d *fakeDevice)
		want  error
	}{
		{"vertex compile", func(d *fakeDevice) { d.compileFails, d.failCompile = true, ShaderStageVertex }, core.ErrShaderCompile},
		{"fragment compile", func(d *fakeDevice) { d.compileFails, d.failCompile = true, ShaderStageFragment }, core.ErrShaderCompile},
		{"link", func(d *fakeDevice) { d.failLink = true }, core.ErrShaderLink},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := newFakeDevice()
			c.setup(d)
			r := New(d, Config{})
			err := r.Init(testFragment, testVertex)
			if !errors.Is(err, c.want) {
				t.Fatalf("Init = %v, want %v", err, c.want)
			}
			for _, b := range d.buffers {
				if !b.deleted {
					t.Error("buffer leaked")
				}
			}
			for _, v := range d.vertexArrays {
				if !v.deleted {
					t.Error("vertex array leaked")
				}
			}
			for _, s := range d.shaders {
				if !s.deleted {
					t.Errorf("%s shader leaked", s.stage)
				}
			}
			if err := r.Begin(); !errors.Is(err, core.ErrNotInitialized) {
				t.Fatalf("Begin after failed Init = %v", err)
			}
		})
	}
}

func TestCapacityTooSmall(t *testing.T) {
	r := New(newFakeDevice(), Config{Capacity: 5})
	if err := r.Init(testFragment, testVertex); !errors.Is(err, core.ErrCapacityExceeded) {
		t.Fatalf("Init = %v, want ErrCapacityExceeded", err)
	}
}

func TestDisposeReleasesResources(t *testing.T) {
	d := newFakeDevice()
	r := New(d, Config{})
	if err := r.Init(testFragment, testVertex); err != nil {
		t.Fatal(err)
	}
	if err := r.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if !d.buffers[0].deleted || !d.vertexArrays[0].deleted || !d.programs[0].deleted {
		t.Fatal("device objects not released")
	}
	if err := r.Dispose(); !errors.Is(err, core.ErrNotInitialized) {
		t.Fatalf("second Dispose = %v", err)
	}

	// A fresh Init brings the renderer back.
	if err := r.Init(testFragment, testVertex); err != nil {
		t.Fatalf("Init after Dispose: %v", err)
	}
	mustBegin(t, r)
	mustEnd(t, r)
}

func TestClearDelegatesToSurface(t *testing.T) {
	r, d := newInitialized(t, Config{})
	if err := r.Clear(); err != nil {
		t.Fatal(err)
	}
	if d.clears != 1 {
		t.Fatalf("clears = %d", d.clears)
	}
}

func TestResize(t *testing.T) {
	r, d := newInitialized(t, Config{})
	if err := r.Resize(1024, 768); err != nil {
		t.Fatal(err)
	}
	p := d.programs[0]
	if got, want := p.uniformMat("projection"), math.NewMat4Orthographic(0, 1024, 0, 768, -1, 1); got != want {
		t.Fatalf("projection = %v", got)
	}
	mustBegin(t, r)
	if err := r.Resize(10, 10); !errors.Is(err, core.ErrAlreadyDrawing) {
		t.Fatalf("Resize while drawing = %v", err)
	}
}

func TestReloadShaders(t *testing.T) {
	r, d := newInitialized(t, Config{})
	old := d.programs[0]

	if err := r.ReloadShaders("new frag", "new vert"); err != nil {
		t.Fatalf("ReloadShaders: %v", err)
	}
	if !old.deleted {
		t.Fatal("old program not deleted")
	}
	fresh := d.programs[1]
	if len(fresh.pointers) != len(VertexLayout) {
		t.Fatalf("new program layout = %v", fresh.pointers)
	}
	if fresh.uniformMat("projection") != old.uniformMat("projection") {
		t.Fatal("projection not carried to the new program")
	}

	d.failLink = true
	if err := r.ReloadShaders("broken", "broken"); !errors.Is(err, core.ErrShaderLink) {
		t.Fatalf("failed reload = %v", err)
	}
	if fresh.deleted {
		t.Fatal("a failed reload must keep the current program")
	}
	d.failLink = false

	mustBegin(t, r)
	if err := r.ReloadShaders(testFragment, testVertex); !errors.Is(err, core.ErrAlreadyDrawing) {
		t.Fatalf("reload while drawing = %v", err)
	}
	if err := r.DrawTexture(&fakeTexture{w: 1, h: 1}, 0, 0); err != nil {
		t.Fatal(err)
	}
	mustEnd(t, r)
}

func TestUploadFailureIsReported(t *testing.T) {
	tex := &fakeTexture{w: 4, h: 4}
	errOverrun := errors.New("overrun")

	r, d := newInitialized(t, Config{Capacity: 6})
	d.failUpload = errOverrun
	mustBegin(t, r)
	if err := r.DrawTexture(tex, 0, 0); err != nil {
		t.Fatal(err)
	}
	// The second quad needs an implicit flush, which cannot upload.
	if err := r.DrawTexture(tex, 1, 1); !errors.Is(err, errOverrun) {
		t.Fatalf("implicit flush: got %v, want the upload error", err)
	}
	if len(d.draws) != 0 {
		t.Fatalf("draws = %v after a failed upload", d.draws)
	}

	if err := r.DrawTexture(tex, 2, 2); err != nil {
		t.Fatal(err)
	}
	if err := r.End(); !errors.Is(err, errOverrun) {
		t.Fatalf("End: got %v, want the upload error", err)
	}
	if r.IsDrawing() {
		t.Fatal("End left the renderer drawing")
	}

	// Nothing stale survives into the next batch.
	d.failUpload = nil
	mustBegin(t, r)
	if err := r.DrawTexture(tex, 3, 3); err != nil {
		t.Fatal(err)
	}
	mustEnd(t, r)
	if len(d.draws) != 1 || d.draws[0] != 6 {
		t.Fatalf("draws = %v, want [6]", d.draws)
	}
	if got := VertexAt(d.drawnVertices(), 0).Position; got != math.NewVec2(3, 3) {
		t.Fatalf("first vertex = %v", got)
	}
}
