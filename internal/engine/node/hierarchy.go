// Package node stores a model's node tree in an index arena and propagates
// local transforms to global ones in a precomputed depth-first order.
package node

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Faultbox/rigging/pkg/math"
)

var (
	ErrNodeOutOfRange  = errors.New("node index out of range")
	ErrMatrixTransform = errors.New("node uses a matrix transform")
	ErrCycle           = errors.New("node hierarchy contains a cycle")
)

// Desc describes a node at construction time. The zero Transform has a
// zero scale; use IdentityTransform for nodes without a local transform.
type Desc struct {
	Name     string
	Local    Transform
	Mesh     *int
	Skin     *int
	Children []int
	Weights  []float32
}

// Node is one entry of the arena.
type Node struct {
	Name     string
	local    Transform
	global   math.Mat4
	mesh     int
	skin     int
	children []int
	weights  []float32
}

// Local returns the local transform.
func (n *Node) Local() Transform { return n.local }

// Global returns the cached global transform from the last propagation.
func (n *Node) Global() math.Mat4 { return n.global }

// Mesh returns the mesh index, if any.
func (n *Node) Mesh() (int, bool) { return n.mesh, n.mesh >= 0 }

// Skin returns the skin index, if any.
func (n *Node) Skin() (int, bool) { return n.skin, n.skin >= 0 }

// Children returns the child indices in declaration order.
func (n *Node) Children() []int { return n.children }

// Weights returns the current morph target weights.
func (n *Node) Weights() []float32 { return n.weights }

// Visit is one step of the traversal: a node and its parent, -1 for roots.
type Visit struct {
	Index  int
	Parent int
}

// SkinBinding pairs a skin with the node that carries it.
type SkinBinding struct {
	Skin   int
	Node   int
	Global math.Mat4
}

// Hierarchy is the node arena of one model.
type Hierarchy struct {
	nodes []Node
	roots []int
	order []Visit
}

// New builds the arena and its depth-first traversal from the given roots.
// Children are visited in declaration order and every parent precedes its
// children. A node reachable along several paths is visited once per path.
func New(descs []Desc, roots []int) (*Hierarchy, error) {
	h := &Hierarchy{
		nodes: make([]Node, len(descs)),
		roots: slices.Clone(roots),
	}

	for i, d := range descs {
		for _, c := range d.Children {
			if c < 0 || c >= len(descs) {
				return nil, fmt.Errorf("%w: node %d has child %d", ErrNodeOutOfRange, i, c)
			}
		}
		n := Node{
			Name:     d.Name,
			local:    d.Local,
			mesh:     -1,
			skin:     -1,
			children: slices.Clone(d.Children),
			weights:  slices.Clone(d.Weights),
		}
		if d.Mesh != nil {
			n.mesh = *d.Mesh
		}
		if d.Skin != nil {
			n.skin = *d.Skin
		}
		n.global = n.local.Matrix()
		h.nodes[i] = n
	}

	for _, r := range roots {
		if r < 0 || r >= len(descs) {
			return nil, fmt.Errorf("%w: root %d", ErrNodeOutOfRange, r)
		}
	}

	order, err := traverse(h.nodes, roots)
	if err != nil {
		return nil, err
	}
	h.order = order
	return h, nil
}

// traverse walks the tree with an explicit stack so deep skeletons do not
// grow the goroutine stack.
func traverse(nodes []Node, roots []int) ([]Visit, error) {
	type frame struct {
		node int
		next int
	}
	onPath := make([]bool, len(nodes))
	order := make([]Visit, 0, len(nodes))

	for _, r := range roots {
		order = append(order, Visit{Index: r, Parent: -1})
		onPath[r] = true
		stack := []frame{{node: r}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := nodes[top.node].children
			if top.next == len(children) {
				onPath[top.node] = false
				stack = stack[:len(stack)-1]
				continue
			}
			parent := top.node
			c := children[top.next]
			top.next++

			if onPath[c] {
				return nil, fmt.Errorf("%w: node %d is its own ancestor", ErrCycle, c)
			}
			onPath[c] = true
			order = append(order, Visit{Index: c, Parent: parent})
			stack = append(stack, frame{node: c})
		}
	}
	return order, nil
}

// Len returns the number of nodes.
func (h *Hierarchy) Len() int { return len(h.nodes) }

// Roots returns the root indices.
func (h *Hierarchy) Roots() []int { return h.roots }

// Traversal returns the precomputed visit order.
func (h *Hierarchy) Traversal() []Visit { return h.order }

// Node returns the node at index i.
func (h *Hierarchy) Node(i int) (*Node, bool) {
	if i < 0 || i >= len(h.nodes) {
		return nil, false
	}
	return &h.nodes[i], true
}

// GlobalTransform returns the global transform of node i.
func (h *Hierarchy) GlobalTransform(i int) (math.Mat4, bool) {
	if i < 0 || i >= len(h.nodes) {
		return math.Identity(), false
	}
	return h.nodes[i].global, true
}

// Propagate recomputes every global transform in traversal order. Roots
// are parented to root when it is non-nil and to the identity otherwise.
// Nodes unreachable from the roots keep their previous global transform.
func (h *Hierarchy) Propagate(root *math.Mat4) {
	for _, v := range h.order {
		parent := math.Identity()
		switch {
		case v.Parent >= 0:
			parent = h.nodes[v.Parent].global
		case root != nil:
			parent = *root
		}
		n := &h.nodes[v.Index]
		n.global = parent.Mul(n.local.Matrix())
	}
}

// SkinBindings appends a binding for every node that carries a skin, in
// arena order, to dst.
func (h *Hierarchy) SkinBindings(dst []SkinBinding) []SkinBinding {
	for i := range h.nodes {
		if s, ok := h.nodes[i].Skin(); ok {
			dst = append(dst, SkinBinding{Skin: s, Node: i, Global: h.nodes[i].global})
		}
	}
	return dst
}

func (h *Hierarchy) decomposed(i int) (*Node, error) {
	if i < 0 || i >= len(h.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrNodeOutOfRange, i)
	}
	n := &h.nodes[i]
	if n.local.IsMatrix() {
		return nil, fmt.Errorf("%w: node %d", ErrMatrixTransform, i)
	}
	return n, nil
}

// SetTranslation replaces the local translation of node i.
func (h *Hierarchy) SetTranslation(i int, v [3]float32) error {
	n, err := h.decomposed(i)
	if err != nil {
		return err
	}
	n.local.translation = v
	return nil
}

// SetRotation replaces the local rotation of node i.
func (h *Hierarchy) SetRotation(i int, q math.Quat) error {
	n, err := h.decomposed(i)
	if err != nil {
		return err
	}
	n.local.rotation = q
	return nil
}

// SetScale replaces the local scale of node i.
func (h *Hierarchy) SetScale(i int, v [3]float32) error {
	n, err := h.decomposed(i)
	if err != nil {
		return err
	}
	n.local.scale = v
	return nil
}

// SetWeights replaces the morph target weights of node i. Matrix nodes
// accept weights too.
func (h *Hierarchy) SetWeights(i int, w []float32) error {
	if i < 0 || i >= len(h.nodes) {
		return fmt.Errorf("%w: %d", ErrNodeOutOfRange, i)
	}
	h.nodes[i].weights = append(h.nodes[i].weights[:0], w...)
	return nil
}

// SetLocal replaces the whole local transform of node i.
func (h *Hierarchy) SetLocal(i int, t Transform) error {
	if i < 0 || i >= len(h.nodes) {
		return fmt.Errorf("%w: %d", ErrNodeOutOfRange, i)
	}
	h.nodes[i].local = t
	return nil
}
