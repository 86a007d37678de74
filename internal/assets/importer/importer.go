// Package importer converts glTF 2.0 documents into model descriptions.
package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/rigging/internal/engine/animation"
	"github.com/Faultbox/rigging/internal/engine/model"
	"github.com/Faultbox/rigging/internal/engine/node"
	"github.com/Faultbox/rigging/internal/logger"
	"github.com/Faultbox/rigging/pkg/math"
)

var (
	ErrAccessorRange       = errors.New("accessor index out of range")
	ErrUnsupportedAccessor = errors.New("unsupported accessor data")
	ErrSamplerRange        = errors.New("sampler index out of range")
	ErrOutputCount         = errors.New("sampler output does not match input")
)

// Load opens a .gltf or .glb file and converts it. The description is named
// after the file when the document's default scene has no name.
func Load(path string) (model.Description, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return model.Description{}, fmt.Errorf("opening %s: %w", path, err)
	}
	desc, err := FromDocument(doc)
	if err != nil {
		return desc, fmt.Errorf("importing %s: %w", path, err)
	}
	if desc.Name == "" {
		desc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return desc, nil
}

// FromDocument converts an already decoded document. Animation channels
// that cannot be read are skipped and logged; unreadable skin data fails
// the import because nodes reference skins by index.
func FromDocument(doc *gltf.Document) (model.Description, error) {
	im := &importer{doc: doc, log: logger.Named("importer")}
	desc, err := im.run()
	for _, w := range im.warnings {
		im.log.Warn("import warning", zap.Error(w))
	}
	return desc, err
}

type importer struct {
	doc      *gltf.Document
	log      *zap.Logger
	warnings []error
}

func (im *importer) warn(err error) {
	im.warnings = append(im.warnings, err)
}

func (im *importer) run() (model.Description, error) {
	var desc model.Description
	if s := im.scene(); s != nil {
		desc.Name = s.Name
	}

	desc.Nodes = make([]node.Desc, len(im.doc.Nodes))
	for i, n := range im.doc.Nodes {
		desc.Nodes[i] = im.node(n)
	}
	desc.Roots = im.roots()

	skins, err := im.skins()
	if err != nil {
		return desc, err
	}
	desc.Skins = skins
	desc.Clips = im.animations()
	desc.MeshBounds = im.meshBounds()
	return desc, nil
}

// scene returns the default scene, falling back to the first one.
func (im *importer) scene() *gltf.Scene {
	if s := im.doc.Scene; s != nil && int(*s) < len(im.doc.Scenes) {
		return im.doc.Scenes[*s]
	}
	if len(im.doc.Scenes) > 0 {
		return im.doc.Scenes[0]
	}
	return nil
}

// roots lists the scene's nodes, or every node without a parent when the
// document has no scenes.
func (im *importer) roots() []int {
	if s := im.scene(); s != nil {
		return indices(s.Nodes)
	}
	hasParent := make([]bool, len(im.doc.Nodes))
	for _, n := range im.doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i, p := range hasParent {
		if !p {
			roots = append(roots, i)
		}
	}
	return roots
}

func (im *importer) node(n *gltf.Node) node.Desc {
	d := node.Desc{
		Name:     n.Name,
		Mesh:     index(n.Mesh),
		Skin:     index(n.Skin),
		Children: indices(n.Children),
		Weights:  slices.Clone(n.Weights),
	}
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		d.Local = node.MatrixTransform(math.Mat4(m))
	} else {
		d.Local = node.Decomposed(
			n.TranslationOrDefault(),
			math.QuatFromArray(n.RotationOrDefault()),
			n.ScaleOrDefault(),
		)
	}
	// A node without its own weights starts from the mesh defaults.
	if d.Weights == nil && n.Mesh != nil && int(*n.Mesh) < len(im.doc.Meshes) {
		d.Weights = slices.Clone(im.doc.Meshes[*n.Mesh].Weights)
	}
	return d
}

func (im *importer) skins() ([]model.SkinDesc, error) {
	skins := make([]model.SkinDesc, 0, len(im.doc.Skins))
	for i, s := range im.doc.Skins {
		sd := model.SkinDesc{Name: s.Name, Joints: indices(s.Joints)}
		if s.InverseBindMatrices != nil {
			mats, err := im.readMat4(int(*s.InverseBindMatrices))
			if err != nil {
				return nil, fmt.Errorf("skin %d inverse bind matrices: %w", i, err)
			}
			sd.InverseBind = mats
		}
		skins = append(skins, sd)
	}
	return skins, nil
}

func (im *importer) animations() []model.ClipDesc {
	clips := make([]model.ClipDesc, 0, len(im.doc.Animations))
	for ai, a := range im.doc.Animations {
		cd := model.ClipDesc{Name: a.Name}
		if cd.Name == "" {
			cd.Name = fmt.Sprintf("animation_%d", ai)
		}
		for ci, ch := range a.Channels {
			if ch.Target.Node == nil {
				continue
			}
			c, err := im.channel(a, ch)
			if err != nil {
				im.warn(fmt.Errorf("animation %q channel %d: %w", cd.Name, ci, err))
				continue
			}
			cd.Channels = append(cd.Channels, c)
		}
		clips = append(clips, cd)
	}
	return clips
}

func (im *importer) channel(a *gltf.Animation, ch *gltf.Channel) (animation.Channel, error) {
	c := animation.Channel{Node: int(*ch.Target.Node)}
	if ch.Sampler == nil {
		return c, fmt.Errorf("%w: missing", ErrSamplerRange)
	}
	if int(*ch.Sampler) >= len(a.Samplers) {
		return c, fmt.Errorf("%w: %d", ErrSamplerRange, *ch.Sampler)
	}
	s := a.Samplers[*ch.Sampler]

	times, err := im.readScalars(int(s.Input))
	if err != nil {
		return c, fmt.Errorf("input: %w", err)
	}
	c.Times = times

	cubic := false
	switch s.Interpolation {
	case gltf.InterpolationStep:
		c.Interpolation = animation.Step
	case gltf.InterpolationCubicSpline:
		cubic = true
		im.warn(fmt.Errorf("node %d %s: cubic spline sampled linearly", c.Node, pathName(ch.Target.Path)))
	}

	out, err := im.readAccessor(int(s.Output))
	if err != nil {
		return c, fmt.Errorf("output: %w", err)
	}

	switch ch.Target.Path {
	case gltf.TRSTranslation, gltf.TRSScale:
		c.Property = animation.Translation
		if ch.Target.Path == gltf.TRSScale {
			c.Property = animation.Scale
		}
		v, ok := out.([][3]float32)
		if !ok {
			return c, fmt.Errorf("%w: %T for %s", ErrUnsupportedAccessor, out, pathName(ch.Target.Path))
		}
		if cubic {
			v = splineValues(v)
		}
		c.Vectors = v
	case gltf.TRSRotation:
		c.Property = animation.Rotation
		q, err := quats(out)
		if err != nil {
			return c, err
		}
		if cubic {
			q = splineValues(q)
		}
		c.Rotations = q
	case gltf.TRSWeights:
		c.Property = animation.Weights
		w, err := scalars(out)
		if err != nil {
			return c, err
		}
		c.Weights, err = splitWeights(w, len(times), cubic)
		if err != nil {
			return c, err
		}
	default:
		return c, fmt.Errorf("%w: path %d", ErrUnsupportedAccessor, ch.Target.Path)
	}
	return c, nil
}

// meshBounds unions the POSITION extents of every primitive per mesh. The
// accessor min/max is used when present, otherwise positions are read.
func (im *importer) meshBounds() []model.Bounds {
	out := make([]model.Bounds, len(im.doc.Meshes))
	for mi, mesh := range im.doc.Meshes {
		b := model.EmptyBounds()
		for pi, prim := range mesh.Primitives {
			idx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			if int(idx) >= len(im.doc.Accessors) {
				im.warn(fmt.Errorf("mesh %d primitive %d: %w: %d", mi, pi, ErrAccessorRange, idx))
				continue
			}
			acc := im.doc.Accessors[idx]
			if len(acc.Min) >= 3 && len(acc.Max) >= 3 {
				b.Extend([3]float32{acc.Min[0], acc.Min[1], acc.Min[2]})
				b.Extend([3]float32{acc.Max[0], acc.Max[1], acc.Max[2]})
				continue
			}
			positions, err := modeler.ReadPosition(im.doc, acc, nil)
			if err != nil {
				im.warn(fmt.Errorf("mesh %d primitive %d positions: %w", mi, pi, err))
				continue
			}
			for _, p := range positions {
				b.Extend(p)
			}
		}
		out[mi] = b
	}
	return out
}

func (im *importer) readAccessor(idx int) (any, error) {
	if idx < 0 || idx >= len(im.doc.Accessors) {
		return nil, fmt.Errorf("%w: %d", ErrAccessorRange, idx)
	}
	return modeler.ReadAccessor(im.doc, im.doc.Accessors[idx], nil)
}

func (im *importer) readScalars(idx int) ([]float32, error) {
	data, err := im.readAccessor(idx)
	if err != nil {
		return nil, err
	}
	return scalars(data)
}

func (im *importer) readMat4(idx int) ([]math.Mat4, error) {
	data, err := im.readAccessor(idx)
	if err != nil {
		return nil, err
	}
	cols, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("%w: %T for matrices", ErrUnsupportedAccessor, data)
	}
	mats := make([]math.Mat4, len(cols))
	for i, c := range cols {
		mats[i] = math.FromColumns(c)
	}
	return mats, nil
}

// splineValues keeps the value of every (in-tangent, value, out-tangent)
// triplet.
func splineValues[T any](v []T) []T {
	out := make([]T, 0, len(v)/3)
	for i := 1; i < len(v); i += 3 {
		out = append(out, v[i])
	}
	return out
}

// splitWeights cuts a flat morph weight output into one vector per key.
func splitWeights(w []float32, keys int, cubic bool) ([][]float32, error) {
	if keys == 0 {
		return nil, nil
	}
	per := keys
	if cubic {
		per *= 3
	}
	if len(w)%per != 0 {
		return nil, fmt.Errorf("%w: %d weights for %d keys", ErrOutputCount, len(w), keys)
	}
	targets := len(w) / per
	out := make([][]float32, keys)
	for k := range out {
		start := k * targets
		if cubic {
			start = (3*k + 1) * targets
		}
		out[k] = slices.Clone(w[start : start+targets])
	}
	return out, nil
}

type normInt interface {
	~int8 | ~uint8 | ~int16 | ~uint16
}

// unorm converts a normalized integer component to float. Signed minimums
// clamp to -1.
func unorm[T normInt](v T, maxValue float32) float32 {
	return max(float32(v)/maxValue, -1)
}

func quatsFrom[T normInt](in [][4]T, maxValue float32) []math.Quat {
	out := make([]math.Quat, len(in))
	for i, q := range in {
		out[i] = math.QuatFromArray([4]float32{
			unorm(q[0], maxValue), unorm(q[1], maxValue), unorm(q[2], maxValue), unorm(q[3], maxValue),
		})
	}
	return out
}

func quats(data any) ([]math.Quat, error) {
	switch v := data.(type) {
	case [][4]float32:
		out := make([]math.Quat, len(v))
		for i, q := range v {
			out[i] = math.QuatFromArray(q)
		}
		return out, nil
	case [][4]int8:
		return quatsFrom(v, 127), nil
	case [][4]uint8:
		return quatsFrom(v, 255), nil
	case [][4]int16:
		return quatsFrom(v, 32767), nil
	case [][4]uint16:
		return quatsFrom(v, 65535), nil
	default:
		return nil, fmt.Errorf("%w: %T for rotations", ErrUnsupportedAccessor, data)
	}
}

func scalarsFrom[T normInt](in []T, maxValue float32) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = unorm(v, maxValue)
	}
	return out
}

func scalars(data any) ([]float32, error) {
	switch v := data.(type) {
	case []float32:
		return v, nil
	case []int8:
		return scalarsFrom(v, 127), nil
	case []uint8:
		return scalarsFrom(v, 255), nil
	case []int16:
		return scalarsFrom(v, 32767), nil
	case []uint16:
		return scalarsFrom(v, 65535), nil
	default:
		return nil, fmt.Errorf("%w: %T for scalars", ErrUnsupportedAccessor, data)
	}
}

// index converts an optional glTF index.
func index(p *uint32) *int {
	if p == nil {
		return nil
	}
	v := int(*p)
	return &v
}

func indices(in []uint32) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func pathName(p gltf.TRSProperty) string {
	switch p {
	case gltf.TRSTranslation:
		return "translation"
	case gltf.TRSRotation:
		return "rotation"
	case gltf.TRSScale:
		return "scale"
	case gltf.TRSWeights:
		return "weights"
	default:
		return "unknown"
	}
}
