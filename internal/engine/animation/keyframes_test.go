package animation

import (
	"errors"
	"testing"

	"github.com/Faultbox/rigging/pkg/math"
)

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func vecNear(a, b [3]float32, eps float32) bool {
	return abs(a[0]-b[0]) <= eps && abs(a[1]-b[1]) <= eps && abs(a[2]-b[2]) <= eps
}

func translationChannel(times []float32, values ...[3]float32) *Channel {
	return &Channel{Property: Translation, Times: times, Vectors: values}
}

func rotationChannel(times []float32, values ...math.Quat) *Channel {
	return &Channel{Property: Rotation, Times: times, Rotations: values}
}

func TestSampleTranslation(t *testing.T) {
	ch := translationChannel([]float32{0, 1, 3},
		[3]float32{0, 0, 0},
		[3]float32{10, 0, 0},
		[3]float32{10, 20, 0},
	)

	tests := []struct {
		name string
		t    float32
		want [3]float32
	}{
		{"first key", 0, [3]float32{0, 0, 0}},
		{"mid first segment", 0.5, [3]float32{5, 0, 0}},
		{"exact middle key", 1, [3]float32{10, 0, 0}},
		{"quarter second segment", 1.5, [3]float32{10, 5, 0}},
		{"last key", 3, [3]float32{10, 20, 0}},
		{"after last key", 7, [3]float32{10, 20, 0}},
		{"before first key", -2, [3]float32{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SampleTranslation(ch, tt.t)
			if !ok {
				t.Fatal("expected a value")
			}
			if !vecNear(got, tt.want, 1e-5) {
				t.Errorf("SampleTranslation(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestSampleWrongProperty(t *testing.T) {
	ch := translationChannel([]float32{0}, [3]float32{1, 2, 3})
	if _, ok := SampleRotation(ch, 0); ok {
		t.Error("rotation sampled from a translation channel")
	}
	if _, ok := SampleScale(ch, 0); ok {
		t.Error("scale sampled from a translation channel")
	}
	if _, ok := SampleWeights(ch, 0); ok {
		t.Error("weights sampled from a translation channel")
	}
	if _, ok := SampleTranslation(&Channel{Property: Translation}, 0); ok {
		t.Error("empty channel should yield no value")
	}
}

func TestSampleScaleReadsScaleValues(t *testing.T) {
	ch := &Channel{
		Property: Scale,
		Times:    []float32{0, 2},
		Vectors:  [][3]float32{{1, 1, 1}, {3, 3, 3}},
	}
	got, ok := SampleScale(ch, 1)
	if !ok || !vecNear(got, [3]float32{2, 2, 2}, 1e-6) {
		t.Errorf("SampleScale(1) = %v, %v, want (2,2,2)", got, ok)
	}
}

func TestSingleKeyframeIsConstant(t *testing.T) {
	v := [3]float32{4, 5, 6}
	q := math.QuatFromAxisAngle(math.Vec3{X: 0, Y: 1, Z: 0}, 1)
	tch := translationChannel([]float32{0.25}, v)
	rch := rotationChannel([]float32{0.25}, q)

	for _, tm := range []float32{-100, 0, 0.25, 1, 1e6} {
		if got, _ := SampleTranslation(tch, tm); got != v {
			t.Errorf("SampleTranslation(%v) = %v, want %v", tm, got, v)
		}
		if got, _ := SampleRotation(rch, tm); got != q {
			t.Errorf("SampleRotation(%v) = %v, want %v", tm, got, q)
		}
	}
}

func TestEndpointExactness(t *testing.T) {
	times := []float32{0, 0.3, 0.7, 1.9}
	vecs := [][3]float32{{1, 2, 3}, {-4, 5.5, 0.1}, {7, 8, 9}, {0.3, 0.2, 0.1}}
	quats := []math.Quat{
		math.QuatIdentity(),
		math.QuatFromAxisAngle(math.Vec3{X: 1}, 0.4),
		math.QuatFromAxisAngle(math.Vec3{Y: 1}, 2.1),
		math.QuatFromAxisAngle(math.Vec3{Z: 1}, -1.3),
	}
	tch := translationChannel(times, vecs...)
	rch := rotationChannel(times, quats...)

	for k, tm := range times {
		if got, _ := SampleTranslation(tch, tm); got != vecs[k] {
			t.Errorf("translation at key %d = %v, want %v", k, got, vecs[k])
		}
		if got, _ := SampleRotation(rch, tm); got != quats[k] {
			t.Errorf("rotation at key %d = %v, want %v", k, got, quats[k])
		}
	}
}

func TestMonotonicInterpolation(t *testing.T) {
	ch := translationChannel([]float32{1, 2}, [3]float32{0, 10, -5}, [3]float32{10, 10, 5})
	prev, _ := SampleTranslation(ch, 1)
	for i := 1; i <= 100; i++ {
		tm := 1 + float32(i)/100
		got, _ := SampleTranslation(ch, tm)
		if got[0] < prev[0] || got[2] < prev[2] {
			t.Fatalf("interpolation went backwards at t=%v: %v after %v", tm, got, prev)
		}
		if got[0] < 0 || got[0] > 10 || got[1] != 10 || got[2] < -5 || got[2] > 5 {
			t.Fatalf("value %v at t=%v outside the segment", got, tm)
		}
		prev = got
	}
}

func TestRotationSlerpUnitLength(t *testing.T) {
	ch := rotationChannel([]float32{0, 1, 2},
		math.QuatIdentity(),
		math.QuatFromAxisAngle(math.Vec3{Y: 1}, 3),
		math.QuatFromAxisAngle(math.Vec3{X: 1}, -2),
	)
	for i := 0; i <= 40; i++ {
		tm := float32(i) / 20
		q, ok := SampleRotation(ch, tm)
		if !ok {
			t.Fatalf("no rotation at %v", tm)
		}
		if l := q.Length(); abs(l-1) > 1e-4 {
			t.Errorf("rotation at t=%v has length %v", tm, l)
		}
	}
}

func TestStepInterpolation(t *testing.T) {
	ch := translationChannel([]float32{0, 1}, [3]float32{0, 0, 0}, [3]float32{10, 10, 10})
	ch.Interpolation = Step
	if got, _ := SampleTranslation(ch, 0.99); got != ([3]float32{}) {
		t.Errorf("step sample before second key = %v, want zero", got)
	}
	if got, _ := SampleTranslation(ch, 1); got != ([3]float32{10, 10, 10}) {
		t.Errorf("step sample at second key = %v", got)
	}
}

func TestDuplicateTimestamps(t *testing.T) {
	ch := translationChannel([]float32{0, 1, 1, 2},
		[3]float32{0, 0, 0}, [3]float32{1, 0, 0}, [3]float32{5, 0, 0}, [3]float32{6, 0, 0})
	if err := ch.Validate(-1); err != nil {
		t.Fatalf("equal timestamps should validate: %v", err)
	}
	got, _ := SampleTranslation(ch, 1)
	if got != ([3]float32{1, 0, 0}) {
		t.Errorf("sample at duplicated key = %v, want first of the pair", got)
	}
}

func TestSampleWeights(t *testing.T) {
	ch := &Channel{
		Property: Weights,
		Times:    []float32{0, 1},
		Weights:  [][]float32{{0, 1}, {1, 0}},
	}
	w, ok := SampleWeights(ch, 0.25)
	if !ok || len(w) != 2 || abs(w[0]-0.25) > 1e-6 || abs(w[1]-0.75) > 1e-6 {
		t.Errorf("SampleWeights(0.25) = %v, %v", w, ok)
	}
	w, _ = SampleWeights(ch, 0)
	w[0] = 42
	if ch.Weights[0][0] != 0 {
		t.Error("SampleWeights must not alias keyframe storage")
	}
}

func TestChannelValidate(t *testing.T) {
	tests := []struct {
		name string
		ch   Channel
		want error
	}{
		{
			name: "valid",
			ch:   Channel{Node: 1, Property: Translation, Times: []float32{0, 1}, Vectors: [][3]float32{{}, {}}},
		},
		{
			name: "no keyframes",
			ch:   Channel{Property: Rotation},
			want: ErrEmptyChannel,
		},
		{
			name: "count mismatch",
			ch:   Channel{Property: Translation, Times: []float32{0, 1}, Vectors: [][3]float32{{}}},
			want: ErrKeyframeCount,
		},
		{
			name: "decreasing times",
			ch:   Channel{Property: Scale, Times: []float32{0, 2, 1}, Vectors: [][3]float32{{}, {}, {}}},
			want: ErrNonMonotonic,
		},
		{
			name: "rotation with vector values",
			ch:   Channel{Property: Rotation, Times: []float32{0}, Vectors: [][3]float32{{}}},
			want: ErrPropertyMismatch,
		},
		{
			name: "node out of range",
			ch:   Channel{Node: 5, Property: Translation, Times: []float32{0}, Vectors: [][3]float32{{}}},
			want: ErrNodeOutOfRange,
		},
		{
			name: "ragged weights",
			ch:   Channel{Property: Weights, Times: []float32{0, 1}, Weights: [][]float32{{1, 2}, {1}}},
			want: ErrKeyframeCount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ch.Validate(3)
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
