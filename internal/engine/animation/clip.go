package animation

import (
	"github.com/Faultbox/rigging/pkg/math"
)

// Pose is the partial local transform a clip produces for one node at one
// instant. Only properties reported by Has are set.
type Pose struct {
	Translation [3]float32
	Rotation    math.Quat
	Scale       [3]float32
	Weights     []float32

	mask uint8
}

// Has reports whether the pose carries a value for p.
func (p Pose) Has(prop Property) bool {
	return p.mask&(1<<prop) != 0
}

func (p *Pose) set(prop Property) {
	p.mask |= 1 << prop
}

// Clip is a named, immutable set of channels.
type Clip struct {
	name     string
	channels []Channel
	duration float32
}

// NewClip builds a clip from channels, dropping every channel that fails
// validation. The dropped channels are returned as *ChannelError values;
// the clip itself is always usable. nodeCount < 0 skips node range checks.
func NewClip(name string, channels []Channel, nodeCount int) (*Clip, []error) {
	clip := &Clip{name: name}
	var rejected []error

	for i := range channels {
		ch := channels[i]
		if err := ch.Validate(nodeCount); err != nil {
			rejected = append(rejected, &ChannelError{
				Clip:     name,
				Channel:  i,
				Node:     ch.Node,
				Property: ch.Property,
				Err:      err,
			})
			continue
		}
		clip.channels = append(clip.channels, ch)
		clip.duration = max(clip.duration, ch.End())
	}
	return clip, rejected
}

// Name returns the clip name.
func (c *Clip) Name() string { return c.name }

// Duration is the largest final timestamp over all channels, 0 without channels.
func (c *Clip) Duration() float32 { return c.duration }

// Channels returns the validated channels. The slice must not be modified.
func (c *Clip) Channels() []Channel { return c.channels }

// Sample evaluates every channel at time t and merges the results per node
// into dst, which is cleared first. A nil dst is allocated. Nodes without a
// channel are absent from the result.
func (c *Clip) Sample(t float32, dst map[int]Pose) map[int]Pose {
	if dst == nil {
		dst = make(map[int]Pose, len(c.channels))
	} else {
		clear(dst)
	}

	for i := range c.channels {
		ch := &c.channels[i]
		pose := dst[ch.Node]
		switch ch.Property {
		case Translation:
			if v, ok := SampleTranslation(ch, t); ok {
				pose.Translation = v
				pose.set(Translation)
			}
		case Rotation:
			if q, ok := SampleRotation(ch, t); ok {
				pose.Rotation = q
				pose.set(Rotation)
			}
		case Scale:
			if v, ok := SampleScale(ch, t); ok {
				pose.Scale = v
				pose.set(Scale)
			}
		case Weights:
			if w, ok := SampleWeights(ch, t); ok {
				pose.Weights = w
				pose.set(Weights)
			}
		}
		dst[ch.Node] = pose
	}
	return dst
}
