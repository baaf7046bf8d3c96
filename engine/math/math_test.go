package math

import "testing"

// clip applies m to (x, y, 0, 1).
func clip(m Mat4, p Vec2) Vec2 {
	return Vec2{
		X: m.Data[0]*p.X + m.Data[4]*p.Y + m.Data[12],
		Y: m.Data[1]*p.X + m.Data[5]*p.Y + m.Data[13],
	}
}

func TestOrthographicMapsFramebufferToClipSpace(t *testing.T) {
	proj := NewMat4Orthographic(0, 800, 0, 600, -1, 1)

	cases := []struct {
		in, want Vec2
	}{
		{NewVec2(0, 0), NewVec2(-1, -1)},
		{NewVec2(800, 600), NewVec2(1, 1)},
		{NewVec2(400, 300), NewVec2(0, 0)},
		{NewVec2(800, 0), NewVec2(1, -1)},
	}
	for _, c := range cases {
		got := clip(proj, c.in)
		if d := got.Add(NewVec2(-c.want.X, -c.want.Y)); d.X*d.X+d.Y*d.Y > 1e-10 {
			t.Errorf("clip(%v) = %v, want %v", c.in, got, c.want)
		}
	}
	if proj.Data[10] != -1 {
		t.Errorf("depth scale = %v, want -1", proj.Data[10])
	}
	if proj.Data[15] != 1 {
		t.Errorf("w = %v, want 1", proj.Data[15])
	}
}

func TestIdentity(t *testing.T) {
	id := NewMat4Identity()
	p := NewVec2(3, 4)
	if got := clip(id, p); got != p {
		t.Fatalf("identity moved %v to %v", p, got)
	}
}

func TestVec2(t *testing.T) {
	a, b := NewVec2(1, 2), NewVec2(3, 4)
	if got := a.Add(b); got != NewVec2(4, 6) {
		t.Fatalf("add = %v", got)
	}
	if got := a.Mul(b); got != NewVec2(3, 8) {
		t.Fatalf("mul = %v", got)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Fatal("integer clamp")
	}
	if Clamp(0.5, 0.0, 0.25) != 0.25 {
		t.Fatal("float clamp")
	}
}
