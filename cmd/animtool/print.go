package main

import (
	"fmt"
	"io"

	"github.com/Faultbox/rigging/internal/engine/animation"
	"github.com/Faultbox/rigging/internal/engine/model"
)

func printInfo(w io.Writer, path string, m *model.Model) {
	h := m.Hierarchy()
	b := m.Bounds()

	fmt.Fprintf(w, "Model:  %s (%s)\n", m.Name, path)
	fmt.Fprintf(w, "Nodes:  %d\n", h.Len())
	fmt.Fprintf(w, "Roots:  %v\n", h.Roots())
	if !b.IsEmpty() {
		fmt.Fprintf(w, "Bounds: %.3f .. %.3f\n", b.Min, b.Max)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Skins (%d):\n", len(m.Skins()))
	for i, s := range m.Skins() {
		if s == nil {
			fmt.Fprintf(w, "  [%d] (rejected)\n", i)
			continue
		}
		fmt.Fprintf(w, "  [%d] %-20s %d joints", i, s.Name(), len(s.Joints()))
		if n := s.Truncated(); n > 0 {
			fmt.Fprintf(w, " (%d dropped)", n)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	var clips []*animation.Clip
	if p := m.Player(); p != nil {
		clips = p.Clips()
	}
	fmt.Fprintf(w, "Clips (%d):\n", len(clips))
	for i, c := range clips {
		fmt.Fprintf(w, "  [%d] %-20s %3d channels %8.3fs\n", i, c.Name(), len(c.Channels()), c.Duration())
	}

	if diags := m.Diagnostics(); len(diags) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Diagnostics (%d):\n", len(diags))
		for _, d := range diags {
			fmt.Fprintf(w, "  %v\n", d)
		}
	}
}

// printJoints prints the root-space position of every joint of every skin.
func printJoints(w io.Writer, name string, m *model.Model) {
	status, _ := m.PlaybackState()
	fmt.Fprintf(w, "  %s [%s %s t=%.3f/%.3f]\n", name, status.ClipName, status.State, status.Time, status.Duration)

	h := m.Hierarchy()
	for si, s := range m.Skins() {
		if s == nil {
			continue
		}
		for _, j := range s.Joints() {
			g, ok := h.GlobalTransform(j)
			if !ok {
				continue
			}
			label := fmt.Sprintf("#%d", j)
			if n, ok := h.Node(j); ok && n.Name != "" {
				label = n.Name
			}
			p := g.Translation()
			fmt.Fprintf(w, "    skin %d %-16s (%8.3f %8.3f %8.3f)\n", si, label, p.X, p.Y, p.Z)
		}
	}
}
