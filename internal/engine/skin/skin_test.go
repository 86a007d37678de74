package skin

import (
	"errors"
	"testing"

	"github.com/Faultbox/rigging/pkg/math"
)

// globals is a GlobalSource backed by a slice.
type globals []math.Mat4

func (g globals) GlobalTransform(i int) (math.Mat4, bool) {
	if i < 0 || i >= len(g) {
		return math.Identity(), false
	}
	return g[i], true
}

func inverse(t *testing.T, m math.Mat4) math.Mat4 {
	t.Helper()
	inv, ok := m.Invert()
	if !ok {
		t.Fatalf("matrix %v is singular", m)
	}
	return inv
}

func TestBindPoseIsIdentity(t *testing.T) {
	bind := globals{
		math.Translate(0, 1, 0),
		math.Translate(0, 2, 0).Mul(math.QuatFromAxisAngle(math.Vec3{Z: 1}, 0.6).ToMat4()),
		math.Compose([3]float32{1, 3, -2}, math.QuatFromAxisAngle(math.Vec3{X: 1}, 1.1), [3]float32{1, 2, 1}),
	}
	ibm := []math.Mat4{inverse(t, bind[0]), inverse(t, bind[1]), inverse(t, bind[2])}

	s, err := New("body", []int{0, 1, 2}, ibm, 128)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	root := math.Translate(5, 0, -3).Mul(math.Scale(2, 2, 2))
	posed := make(globals, len(bind))
	for i, g := range bind {
		posed[i] = root.Mul(g)
	}

	s.ComputeJointMatrices(root, posed)
	for i, m := range s.JointMatrices() {
		if !m.ApproxEqual(math.Identity(), 1e-4) {
			t.Errorf("joint %d at bind pose = %v, want identity", i, m)
		}
	}
}

func TestJointMatrixFormula(t *testing.T) {
	ref := math.Translate(1, 0, 0)
	g := globals{math.Translate(3, 0, 0)}
	ibm := []math.Mat4{math.Translate(0, -1, 0)}

	s, err := New("s", []int{0}, ibm, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.ComputeJointMatrices(ref, g)

	want := math.Translate(2, -1, 0)
	if got := s.JointMatrices()[0]; !got.ApproxEqual(want, 1e-6) {
		t.Errorf("joint matrix = %v, want %v", got, want)
	}
}

func TestJointCapTruncates(t *testing.T) {
	joints := []int{10, 11, 12, 13, 14, 15}
	ibm := make([]math.Mat4, len(joints))
	for i := range ibm {
		ibm[i] = math.Translate(float32(i), 0, 0)
	}

	s, err := New("big", joints, ibm, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.Joints(); len(got) != 4 || got[0] != 10 || got[3] != 13 {
		t.Errorf("Joints() = %v, want the first four in order", got)
	}
	if s.Truncated() != 2 {
		t.Errorf("Truncated() = %d, want 2", s.Truncated())
	}
	if got := s.InverseBindMatrices()[3]; got != math.Translate(3, 0, 0) {
		t.Errorf("fourth inverse bind matrix = %v", got)
	}
	if len(s.JointMatrices()) != 4 {
		t.Errorf("expected 4 joint matrices, got %d", len(s.JointMatrices()))
	}

	under, _ := New("small", []int{1, 2}, nil, 4)
	if under.Truncated() != 0 || len(under.Joints()) != 2 {
		t.Errorf("skin under the cap was changed: %v", under.Joints())
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New("empty", nil, nil, 8); !errors.Is(err, ErrNoJoints) {
		t.Errorf("New without joints = %v, want ErrNoJoints", err)
	}
	if _, err := New("bad", []int{0, 1}, []math.Mat4{math.Identity()}, 8); !errors.Is(err, ErrBindMatrixCount) {
		t.Errorf("New with too few matrices = %v, want ErrBindMatrixCount", err)
	}
}

func TestNilInverseBindIsIdentity(t *testing.T) {
	s, err := New("s", []int{0}, nil, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.ComputeJointMatrices(math.Identity(), globals{math.Translate(1, 2, 3)})
	if got := s.JointMatrices()[0]; got != math.Translate(1, 2, 3) {
		t.Errorf("joint matrix = %v, want the node global", got)
	}
}

func TestSingularReferenceDoesNotPanic(t *testing.T) {
	s, err := New("s", []int{0}, nil, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.ComputeJointMatrices(math.Scale(0, 0, 0), globals{math.Identity()})
	if s.JointMatrices()[0].IsFinite() {
		t.Error("singular reference should leave non-finite values")
	}
}

func TestMissingJointNodeIsIdentity(t *testing.T) {
	s, err := New("s", []int{0, 9}, nil, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.ComputeJointMatrices(math.Identity(), globals{math.Translate(1, 0, 0)})
	if got := s.JointMatrices()[1]; got != math.Identity() {
		t.Errorf("missing joint = %v, want identity", got)
	}
	if err := s.Validate(1); !errors.Is(err, ErrJointOutOfRange) {
		t.Errorf("Validate = %v, want ErrJointOutOfRange", err)
	}
	if err := s.Validate(10); err != nil {
		t.Errorf("Validate(10) = %v", err)
	}
}

func TestPalette(t *testing.T) {
	s, err := New("s", []int{0}, nil, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.ComputeJointMatrices(math.Identity(), globals{math.Translate(7, 8, 9)})

	p := s.Palette(nil)
	if len(p) != 3*16 {
		t.Fatalf("palette length = %d, want 48", len(p))
	}
	if p[12] != 7 || p[13] != 8 || p[14] != 9 {
		t.Errorf("first block translation = %v", p[12:15])
	}
	id := math.Identity()
	for blk := 1; blk < 3; blk++ {
		for i := 0; i < 16; i++ {
			if p[blk*16+i] != id[i] {
				t.Fatalf("padding block %d is not identity: %v", blk, p[blk*16:blk*16+16])
			}
		}
	}

	again := s.Palette(p)
	if &again[0] != &p[0] {
		t.Error("Palette should reuse a large enough buffer")
	}
}

func TestParseSpace(t *testing.T) {
	for in, want := range map[string]Space{"root": RootSpace, "node": NodeSpace, "": RootSpace} {
		got, err := ParseSpace(in)
		if err != nil || got != want {
			t.Errorf("ParseSpace(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSpace("world"); !errors.Is(err, ErrUnknownSpace) {
		t.Errorf("ParseSpace(world) = %v", err)
	}
}
