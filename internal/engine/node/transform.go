package node

import "github.com/Faultbox/rigging/pkg/math"

type transformKind uint8

const (
	decomposed transformKind = iota
	matrix
)

// Transform is a node's local transform: either decomposed into
// translation, rotation and scale, or an opaque matrix. Only the decomposed
// form can be animated.
type Transform struct {
	kind        transformKind
	translation [3]float32
	rotation    math.Quat
	scale       [3]float32
	matrix      math.Mat4
}

// Decomposed returns a TRS transform.
func Decomposed(translation [3]float32, rotation math.Quat, scale [3]float32) Transform {
	return Transform{
		kind:        decomposed,
		translation: translation,
		rotation:    rotation,
		scale:       scale,
	}
}

// IdentityTransform returns the decomposed identity.
func IdentityTransform() Transform {
	return Decomposed([3]float32{}, math.QuatIdentity(), [3]float32{1, 1, 1})
}

// MatrixTransform returns a transform holding m as is.
func MatrixTransform(m math.Mat4) Transform {
	return Transform{kind: matrix, matrix: m}
}

// IsMatrix reports whether the transform is an opaque matrix.
func (t Transform) IsMatrix() bool { return t.kind == matrix }

// TRS returns the decomposed parts. ok is false for matrix transforms.
func (t Transform) TRS() (translation [3]float32, rotation math.Quat, scale [3]float32, ok bool) {
	if t.kind == matrix {
		return translation, rotation, scale, false
	}
	return t.translation, t.rotation, t.scale, true
}

// Matrix returns the local matrix, T * R * S for decomposed transforms.
func (t Transform) Matrix() math.Mat4 {
	if t.kind == matrix {
		return t.matrix
	}
	return math.Compose(t.translation, t.rotation, t.scale)
}
