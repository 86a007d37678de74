// Package skin computes per-joint skinning matrices from node globals and
// inverse bind matrices.
package skin

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/rigging/internal/logger"
	"github.com/Faultbox/rigging/pkg/math"
)

var (
	ErrNoJoints        = errors.New("skin has no joints")
	ErrBindMatrixCount = errors.New("inverse bind matrix count does not match joints")
	ErrJointOutOfRange = errors.New("joint node out of range")
	ErrUnknownSpace    = errors.New("unknown skin space")
)

// SkinError wraps a skin validation error with the skin it belongs to.
type SkinError struct {
	Skin int
	Name string
	Err  error
}

func (e *SkinError) Error() string {
	return fmt.Sprintf("skin %d (%q): %v", e.Skin, e.Name, e.Err)
}

func (e *SkinError) Unwrap() error { return e.Err }

// Space selects the reference transform joint matrices are expressed in.
type Space uint8

const (
	// RootSpace uses the model root transform.
	RootSpace Space = iota
	// NodeSpace uses the global transform of the node carrying the skin.
	NodeSpace
)

func (s Space) String() string {
	if s == NodeSpace {
		return "node"
	}
	return "root"
}

// ParseSpace converts a config name into a Space.
func ParseSpace(s string) (Space, error) {
	switch s {
	case "root", "":
		return RootSpace, nil
	case "node":
		return NodeSpace, nil
	}
	return RootSpace, fmt.Errorf("%w: %q", ErrUnknownSpace, s)
}

// GlobalSource provides node global transforms by index.
type GlobalSource interface {
	GlobalTransform(node int) (math.Mat4, bool)
}

// Skin binds a mesh to a set of joint nodes.
type Skin struct {
	name        string
	joints      []int
	inverseBind []math.Mat4
	matrices    []math.Mat4
	maxJoints   int
	truncated   int

	warnedSingular bool
	warnedMissing  bool
	log            *zap.Logger
}

// New creates a skin. A nil inverseBind means identity for every joint.
// When maxJoints is positive and smaller than len(joints), only the first
// maxJoints joints are kept; Truncated reports how many were dropped.
func New(name string, joints []int, inverseBind []math.Mat4, maxJoints int) (*Skin, error) {
	if len(joints) == 0 {
		return nil, ErrNoJoints
	}
	if inverseBind != nil && len(inverseBind) != len(joints) {
		return nil, fmt.Errorf("%w: %d matrices for %d joints", ErrBindMatrixCount, len(inverseBind), len(joints))
	}

	n := len(joints)
	if maxJoints > 0 && n > maxJoints {
		n = maxJoints
	}

	s := &Skin{
		name:        name,
		joints:      make([]int, n),
		inverseBind: make([]math.Mat4, n),
		matrices:    make([]math.Mat4, n),
		maxJoints:   maxJoints,
		truncated:   len(joints) - n,
		log:         logger.Named("skin").With(zap.String("skin", name)),
	}
	copy(s.joints, joints)
	for i := range n {
		if inverseBind != nil {
			s.inverseBind[i] = inverseBind[i]
		} else {
			s.inverseBind[i] = math.Identity()
		}
		s.matrices[i] = math.Identity()
	}

	if s.truncated > 0 {
		s.log.Warn("joint cap reached, dropping joints",
			zap.Int("joints", len(joints)),
			zap.Int("max", maxJoints),
			zap.Int("dropped", s.truncated))
	}
	return s, nil
}

// Validate checks every joint index against the node count.
func (s *Skin) Validate(nodeCount int) error {
	for i, j := range s.joints {
		if j < 0 || j >= nodeCount {
			return fmt.Errorf("%w: joint %d references node %d of %d", ErrJointOutOfRange, i, j, nodeCount)
		}
	}
	return nil
}

// Name returns the skin name.
func (s *Skin) Name() string { return s.name }

// Joints returns the joint node indices after the cap.
func (s *Skin) Joints() []int { return s.joints }

// InverseBindMatrices returns the inverse bind matrices after the cap.
func (s *Skin) InverseBindMatrices() []math.Mat4 { return s.inverseBind }

// Truncated returns the number of joints dropped by the cap.
func (s *Skin) Truncated() int { return s.truncated }

// JointMatrices returns the matrices from the last ComputeJointMatrices,
// one per joint. The slice is reused between calls.
func (s *Skin) JointMatrices() []math.Mat4 { return s.matrices }

// ComputeJointMatrices sets joint i to
// inverse(reference) * global(joint i) * inverseBind(i).
//
// A singular reference still produces matrices (containing NaN or Inf)
// and a warning. A joint whose node is missing from globals gets the
// identity.
func (s *Skin) ComputeJointMatrices(reference math.Mat4, globals GlobalSource) {
	inv, ok := reference.Invert()
	if !ok && !s.warnedSingular {
		s.warnedSingular = true
		s.log.Warn("reference transform is not invertible")
	}

	for i, node := range s.joints {
		global, found := globals.GlobalTransform(node)
		if !found {
			if !s.warnedMissing {
				s.warnedMissing = true
				s.log.Warn("joint node missing", zap.Int("joint", i), zap.Int("node", node))
			}
			s.matrices[i] = math.Identity()
			continue
		}
		s.matrices[i] = inv.Mul(global).Mul(s.inverseBind[i])
	}
}

// PaletteSize returns the number of floats Palette writes.
func (s *Skin) PaletteSize() int {
	if s.maxJoints > 0 {
		return s.maxJoints * 16
	}
	return len(s.matrices) * 16
}

// Palette writes the joint matrices as consecutive column-major float32
// blocks into dst, padding up to the joint cap with identities, and
// returns the resized slice.
func (s *Skin) Palette(dst []float32) []float32 {
	size := s.PaletteSize()
	if cap(dst) < size {
		dst = make([]float32, size)
	}
	dst = dst[:size]

	id := math.Identity()
	for i := 0; i < size/16; i++ {
		m := id
		if i < len(s.matrices) {
			m = s.matrices[i]
		}
		copy(dst[i*16:], m[:])
	}
	return dst
}
