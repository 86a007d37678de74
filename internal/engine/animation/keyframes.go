// Package animation samples glTF-style keyframe channels and drives clip
// playback for a single model.
package animation

import (
	"fmt"
	"slices"

	"github.com/chewxy/math32"

	"github.com/Faultbox/rigging/pkg/math"
)

// Property is the node property a channel animates.
type Property uint8

const (
	Translation Property = iota
	Rotation
	Scale
	Weights
)

func (p Property) String() string {
	switch p {
	case Translation:
		return "translation"
	case Rotation:
		return "rotation"
	case Scale:
		return "scale"
	case Weights:
		return "weights"
	default:
		return fmt.Sprintf("property(%d)", uint8(p))
	}
}

// Interpolation selects how values between two keyframes are computed.
type Interpolation uint8

const (
	Linear Interpolation = iota
	Step
)

func (i Interpolation) String() string {
	if i == Step {
		return "step"
	}
	return "linear"
}

// Channel animates one property of one node. Times and the value slice
// matching Property are parallel arrays; the other value slices are nil.
type Channel struct {
	Node          int
	Property      Property
	Interpolation Interpolation
	Times         []float32

	Vectors   [][3]float32 // translation or scale
	Rotations []math.Quat
	Weights   [][]float32 // one morph weight vector per keyframe
}

// valueCount returns the number of values stored for the channel's property
// and whether any other value slice is populated.
func (c *Channel) valueCount() (n int, foreign bool) {
	switch c.Property {
	case Translation, Scale:
		return len(c.Vectors), len(c.Rotations) > 0 || len(c.Weights) > 0
	case Rotation:
		return len(c.Rotations), len(c.Vectors) > 0 || len(c.Weights) > 0
	case Weights:
		return len(c.Weights), len(c.Vectors) > 0 || len(c.Rotations) > 0
	default:
		return 0, true
	}
}

// Validate reports whether the channel can be sampled: matching value
// counts, non-decreasing times and a node inside the hierarchy.
// nodeCount < 0 skips the node range check.
func (c *Channel) Validate(nodeCount int) error {
	if nodeCount >= 0 && (c.Node < 0 || c.Node >= nodeCount) {
		return fmt.Errorf("%w: %d of %d", ErrNodeOutOfRange, c.Node, nodeCount)
	}
	n, foreign := c.valueCount()
	if foreign || (n == 0 && len(c.Times) > 0) {
		return ErrPropertyMismatch
	}
	if len(c.Times) == 0 {
		return ErrEmptyChannel
	}
	if n != len(c.Times) {
		return fmt.Errorf("%w: %d values for %d timestamps", ErrKeyframeCount, n, len(c.Times))
	}
	for i, t := range c.Times {
		if math32.IsNaN(t) || (i > 0 && t < c.Times[i-1]) {
			return fmt.Errorf("%w: index %d", ErrNonMonotonic, i)
		}
	}
	if c.Property == Weights {
		for i, w := range c.Weights {
			if len(w) != len(c.Weights[0]) {
				return fmt.Errorf("%w: weight key %d has %d targets, want %d", ErrKeyframeCount, i, len(w), len(c.Weights[0]))
			}
		}
	}
	return nil
}

// End returns the last timestamp, or 0 for an empty channel.
func (c *Channel) End() float32 {
	if len(c.Times) == 0 {
		return 0
	}
	return c.Times[len(c.Times)-1]
}

// bracket finds the keyframes surrounding t and the blend factor between
// them. An exact hit selects that key with factor 0. Queries outside the
// keyed range clamp to the first or last key.
func (c *Channel) bracket(t float32) (lo, hi int, f float32) {
	idx, found := slices.BinarySearch(c.Times, t)
	switch {
	case found:
		lo = idx
	case idx > 0:
		lo = idx - 1
	}
	hi = min(lo+1, len(c.Times)-1)

	if c.Interpolation == Step {
		return lo, hi, 0
	}
	t0, t1 := c.Times[lo], c.Times[hi]
	if t1 == t0 {
		return lo, hi, 0
	}
	f = (t - t0) / (t1 - t0)
	switch {
	case !(f > 0): // also catches NaN
		f = 0
	case f > 1:
		f = 1
	}
	return lo, hi, f
}

// SampleTranslation returns the interpolated translation at time t.
// ok is false when the channel does not animate translation.
func SampleTranslation(c *Channel, t float32) (v [3]float32, ok bool) {
	if c.Property != Translation {
		return v, false
	}
	return sampleVector(c, t)
}

// SampleScale returns the interpolated scale at time t.
// ok is false when the channel does not animate scale.
func SampleScale(c *Channel, t float32) (v [3]float32, ok bool) {
	if c.Property != Scale {
		return v, false
	}
	return sampleVector(c, t)
}

func sampleVector(c *Channel, t float32) ([3]float32, bool) {
	if len(c.Times) == 0 || len(c.Vectors) < len(c.Times) {
		return [3]float32{}, false
	}
	lo, hi, f := c.bracket(t)
	if f == 0 {
		return c.Vectors[lo], true
	}
	return math.LerpVec3(c.Vectors[lo], c.Vectors[hi], f), true
}

// SampleRotation returns the spherically interpolated rotation at time t.
// ok is false when the channel does not animate rotation.
func SampleRotation(c *Channel, t float32) (q math.Quat, ok bool) {
	if c.Property != Rotation || len(c.Times) == 0 || len(c.Rotations) < len(c.Times) {
		return q, false
	}
	lo, hi, f := c.bracket(t)
	if f == 0 {
		return c.Rotations[lo], true
	}
	return c.Rotations[lo].Slerp(c.Rotations[hi], f), true
}

// SampleWeights returns the interpolated morph weights at time t in a new
// slice. ok is false when the channel does not animate weights.
func SampleWeights(c *Channel, t float32) (w []float32, ok bool) {
	if c.Property != Weights || len(c.Times) == 0 || len(c.Weights) < len(c.Times) {
		return nil, false
	}
	lo, hi, f := c.bracket(t)
	if f == 0 {
		return slices.Clone(c.Weights[lo]), true
	}
	return math.LerpSlice(nil, c.Weights[lo], c.Weights[hi], f), true
}
