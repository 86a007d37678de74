package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/rigging/internal/engine/animation"
	"github.com/Faultbox/rigging/internal/engine/node"
	"github.com/Faultbox/rigging/internal/engine/skin"
	"github.com/Faultbox/rigging/internal/logger"
	"github.com/Faultbox/rigging/pkg/math"
)

// Model is one animated model: its nodes, an optional player, its skins and
// the fixed root transform derived from its bounds at load time.
// A Model is not safe for concurrent use.
type Model struct {
	Name string

	hierarchy  *node.Hierarchy
	player     *animation.Player
	skins      []*skin.Skin
	meshBounds []Bounds
	bounds     Bounds
	root       math.Mat4
	space      skin.Space

	diagnostics []error
	bindings    []node.SkinBinding
	log         *zap.Logger
}

// Load builds a model from desc. Structural hierarchy errors and a
// degenerate root are fatal. Malformed channels and skins are dropped and
// reported by Diagnostics.
func Load(desc Description, opts Options) (*Model, error) {
	log := logger.Named("model").With(zap.String("model", desc.Name))

	h, err := node.New(desc.Nodes, desc.Roots)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHierarchy, err)
	}

	m := &Model{
		Name:       desc.Name,
		hierarchy:  h,
		meshBounds: desc.MeshBounds,
		space:      opts.SkinSpace,
		root:       math.Identity(),
		log:        log,
	}

	m.loadClips(desc.Clips, opts)
	m.loadSkins(desc.Skins, opts.MaxJoints)
	m.checkBindings()

	// Bounds are measured on the rest pose with no root applied.
	h.Propagate(nil)
	m.bounds = m.computeBounds()
	if opts.Normalize {
		m.root = normalizeTransform(m.bounds, opts.NormalizeSize)
	}
	if _, ok := m.root.Invert(); !ok || !m.root.IsFinite() {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateTransform, m.root)
	}

	if m.player != nil && opts.Autoplay {
		m.player.Apply(h)
	}
	m.refresh()

	for _, d := range m.diagnostics {
		log.Warn("load diagnostic", zap.Error(d))
	}
	log.Debug("model loaded",
		zap.Int("nodes", h.Len()),
		zap.Int("clips", len(desc.Clips)),
		zap.Int("skins", len(m.skins)))
	return m, nil
}

func (m *Model) loadClips(descs []ClipDesc, opts Options) {
	if len(descs) == 0 {
		return
	}
	clips := make([]*animation.Clip, 0, len(descs))
	for _, cd := range descs {
		clip, rejected := animation.NewClip(cd.Name, cd.Channels, m.hierarchy.Len())
		m.diagnostics = append(m.diagnostics, rejected...)
		clips = append(clips, clip)
	}

	speed := opts.Speed
	if speed == 0 {
		speed = 1
	}
	m.player = animation.NewPlayer(clips,
		animation.WithMode(opts.Mode),
		animation.WithSpeed(speed),
		animation.WithLogger(logger.Named("animation").With(zap.String("model", m.Name))),
	)
	if opts.Autoplay {
		m.player.Play()
	}
}

func (m *Model) loadSkins(descs []SkinDesc, maxJoints int) {
	m.skins = make([]*skin.Skin, len(descs))
	for i, sd := range descs {
		s, err := skin.New(sd.Name, sd.Joints, sd.InverseBind, maxJoints)
		if err == nil {
			err = s.Validate(m.hierarchy.Len())
		}
		if err != nil {
			m.diagnostics = append(m.diagnostics, &skin.SkinError{Skin: i, Name: sd.Name, Err: err})
			continue
		}
		m.skins[i] = s
	}
}

// checkBindings reports nodes whose skin or mesh index has no target.
func (m *Model) checkBindings() {
	for i := 0; i < m.hierarchy.Len(); i++ {
		n, _ := m.hierarchy.Node(i)
		if s, ok := n.Skin(); ok && s >= len(m.skins) {
			m.diagnostics = append(m.diagnostics, fmt.Errorf("%w: node %d uses skin %d of %d", ErrSkinOutOfRange, i, s, len(m.skins)))
		}
		if mesh, ok := n.Mesh(); ok && mesh >= len(m.meshBounds) {
			m.diagnostics = append(m.diagnostics, fmt.Errorf("%w: node %d uses mesh %d of %d", ErrMeshOutOfRange, i, mesh, len(m.meshBounds)))
		}
	}
}

// computeBounds unions the bounds of every mesh node in its global space.
func (m *Model) computeBounds() Bounds {
	b := EmptyBounds()
	for i := 0; i < m.hierarchy.Len(); i++ {
		n, _ := m.hierarchy.Node(i)
		mesh, ok := n.Mesh()
		if !ok || mesh >= len(m.meshBounds) {
			continue
		}
		b.Union(m.meshBounds[mesh].Transform(n.Global()))
	}
	return b
}

// Update advances playback by dt seconds. When the pose changed it
// propagates the hierarchy under the root transform and recomputes every
// bound skin. It returns whether anything changed.
func (m *Model) Update(dt float32) bool {
	if m.player == nil || !m.player.Update(m.hierarchy, dt) {
		return false
	}
	m.refresh()
	return true
}

func (m *Model) refresh() {
	m.hierarchy.Propagate(&m.root)
	m.bindings = m.hierarchy.SkinBindings(m.bindings[:0])
	for _, b := range m.bindings {
		if b.Skin >= len(m.skins) || m.skins[b.Skin] == nil {
			continue
		}
		ref := m.root
		if m.space == skin.NodeSpace {
			ref = b.Global
		}
		m.skins[b.Skin].ComputeJointMatrices(ref, m.hierarchy)
	}
}

// Hierarchy returns the node arena.
func (m *Model) Hierarchy() *node.Hierarchy { return m.hierarchy }

// Skins returns the skins by index. Skins rejected at load are nil.
func (m *Model) Skins() []*skin.Skin { return m.skins }

// Skin returns skin i if it exists and loaded.
func (m *Model) Skin(i int) (*skin.Skin, bool) {
	if i < 0 || i >= len(m.skins) || m.skins[i] == nil {
		return nil, false
	}
	return m.skins[i], true
}

// Root returns the global transform applied above the root nodes.
func (m *Model) Root() math.Mat4 { return m.root }

// Bounds returns the model bounds measured at load, before the root transform.
func (m *Model) Bounds() Bounds { return m.bounds }

// Diagnostics returns the problems found while loading.
func (m *Model) Diagnostics() []error { return m.diagnostics }
