// Package model ties a node hierarchy, its animation clips and its skins
// into one animated model.
package model

import (
	"errors"

	"github.com/Faultbox/rigging/internal/engine/animation"
	"github.com/Faultbox/rigging/internal/engine/node"
	"github.com/Faultbox/rigging/internal/engine/skin"
	"github.com/Faultbox/rigging/pkg/math"
)

// ErrInvalidHierarchy wraps structural node errors. It is fatal for a load.
var ErrInvalidHierarchy = errors.New("invalid node hierarchy")

// ErrDegenerateTransform is returned when the model root cannot be inverted.
var ErrDegenerateTransform = errors.New("degenerate root transform")

var (
	ErrSkinOutOfRange = errors.New("skin index out of range")
	ErrMeshOutOfRange = errors.New("mesh index out of range")
)

// Description is everything needed to build a Model. Importers produce it.
type Description struct {
	Name       string
	Nodes      []node.Desc
	Roots      []int
	Clips      []ClipDesc
	Skins      []SkinDesc
	MeshBounds []Bounds // indexed by node mesh index
}

// ClipDesc is the raw input of one animation clip.
type ClipDesc struct {
	Name     string
	Channels []animation.Channel
}

// SkinDesc is the raw input of one skin. A nil InverseBind means identity.
type SkinDesc struct {
	Name        string
	Joints      []int
	InverseBind []math.Mat4
}

// Options control how a Description becomes a Model.
type Options struct {
	// MaxJoints caps the joints kept per skin, 0 for no cap.
	MaxJoints int
	// SkinSpace selects the reference transform of joint matrices.
	SkinSpace skin.Space
	// Mode and Speed configure the player. A zero Speed means 1.
	Mode  animation.PlaybackMode
	Speed float32
	// Autoplay starts the first clip on load.
	Autoplay bool
	// Normalize fits the model into a cube of NormalizeSize centred on the origin.
	Normalize     bool
	NormalizeSize float32
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		MaxJoints:     128,
		SkinSpace:     skin.RootSpace,
		Mode:          animation.Loop,
		Speed:         1,
		Autoplay:      true,
		Normalize:     true,
		NormalizeSize: 10,
	}
}
