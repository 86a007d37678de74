package animation

import (
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/rigging/internal/logger"
	"github.com/Faultbox/rigging/pkg/math"
)

// PlaybackState is the state of a Player.
type PlaybackState uint8

const (
	Stopped PlaybackState = iota
	Playing
	Paused
)

func (s PlaybackState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// PlaybackMode controls how elapsed time maps onto clip time.
type PlaybackMode uint8

const (
	Loop     PlaybackMode = iota // wrap around at the end
	Once                         // hold the last pose and pause
	PingPong                     // play forwards then backwards
)

func (m PlaybackMode) String() string {
	switch m {
	case Once:
		return "once"
	case PingPong:
		return "pingpong"
	default:
		return "loop"
	}
}

// ParsePlaybackMode converts a config name into a PlaybackMode.
func ParsePlaybackMode(s string) (PlaybackMode, error) {
	switch s {
	case "loop", "":
		return Loop, nil
	case "once":
		return Once, nil
	case "pingpong":
		return PingPong, nil
	}
	return Loop, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// PoseTarget receives sampled local transforms. The node hierarchy
// implements it.
type PoseTarget interface {
	SetTranslation(node int, v [3]float32) error
	SetRotation(node int, q math.Quat) error
	SetScale(node int, v [3]float32) error
	SetWeights(node int, w []float32) error
}

// PlaybackStatus is a snapshot of a Player.
type PlaybackStatus struct {
	State    PlaybackState
	Mode     PlaybackMode
	Clip     int
	ClipName string
	Time     float32 // position inside the clip
	Elapsed  float32
	Duration float32
	Speed    float32
}

// Player owns the clips of one model and the playback state for them.
// It is not safe for concurrent use.
type Player struct {
	clips   []*Clip
	current int
	elapsed float32
	speed   float32
	mode    PlaybackMode
	state   PlaybackState

	pose   map[int]Pose
	warned map[int]bool
	log    *zap.Logger
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithMode sets the initial playback mode.
func WithMode(m PlaybackMode) PlayerOption {
	return func(p *Player) { p.mode = m }
}

// WithSpeed sets the playback speed multiplier. Negative values clamp to 0.
func WithSpeed(s float32) PlayerOption {
	return func(p *Player) { p.SetSpeed(s) }
}

// WithLogger replaces the player's logger.
func WithLogger(l *zap.Logger) PlayerOption {
	return func(p *Player) { p.log = l }
}

// NewPlayer returns a stopped player positioned on the first clip.
func NewPlayer(clips []*Clip, opts ...PlayerOption) *Player {
	p := &Player{
		clips:  clips,
		speed:  1,
		warned: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Named("animation")
	}
	return p
}

// Play starts or resumes playback.
func (p *Player) Play() { p.state = Playing }

// Pause freezes playback at the current time.
func (p *Player) Pause() {
	if p.state == Playing {
		p.state = Paused
	}
}

// Stop halts playback and rewinds to the start.
func (p *Player) Stop() {
	p.state = Stopped
	p.elapsed = 0
}

// Reset rewinds to the start without changing the state.
func (p *Player) Reset() { p.elapsed = 0 }

// Toggle switches between playing and paused. A stopped player starts.
func (p *Player) Toggle() {
	if p.state == Playing {
		p.state = Paused
		return
	}
	p.state = Playing
}

// SetCurrent selects clip i and rewinds to its start. An out of range
// index leaves the player untouched and returns false.
func (p *Player) SetCurrent(i int) bool {
	if i < 0 || i >= len(p.clips) {
		p.log.Warn("clip index out of range", zap.Int("index", i), zap.Int("clips", len(p.clips)))
		return false
	}
	p.current = i
	p.elapsed = 0
	return true
}

// Cycle selects the next clip, wrapping to the first, and returns its index.
// It returns -1 when there are no clips.
func (p *Player) Cycle() int {
	if len(p.clips) == 0 {
		return -1
	}
	p.SetCurrent((p.current + 1) % len(p.clips))
	return p.current
}

// SetMode changes the playback mode. Elapsed time is kept.
func (p *Player) SetMode(m PlaybackMode) { p.mode = m }

// SetSpeed changes the playback speed multiplier. Playback only runs
// forwards, so negative values clamp to 0 which freezes the clip.
func (p *Player) SetSpeed(s float32) { p.speed = math32.Max(s, 0) }

// State returns the current playback state.
func (p *Player) State() PlaybackState { return p.state }

// Clips returns the clips in playback order.
func (p *Player) Clips() []*Clip { return p.clips }

// Current returns the selected clip, or nil when there are no clips.
func (p *Player) Current() *Clip {
	if len(p.clips) == 0 {
		return nil
	}
	return p.clips[p.current]
}

// Index returns the position of the clip called name, or -1.
func (p *Player) Index(name string) int {
	for i, c := range p.clips {
		if c.name == name {
			return i
		}
	}
	return -1
}

// Advance moves playback forward by dt seconds. It returns true when the
// player is playing a clip, which means a new pose must be applied.
func (p *Player) Advance(dt float32) bool {
	if p.state != Playing || len(p.clips) == 0 {
		return false
	}
	p.elapsed += dt * p.speed

	if p.mode == Once {
		if d := p.clips[p.current].duration; p.elapsed >= d {
			p.elapsed = d
			p.state = Paused
		}
	}
	return true
}

// SampleTime maps elapsed time onto the current clip according to the
// playback mode. Clips without duration always sample at 0.
func (p *Player) SampleTime() float32 {
	if len(p.clips) == 0 {
		return 0
	}
	d := p.clips[p.current].duration
	if d <= 0 {
		return 0
	}
	switch p.mode {
	case Once:
		return math32.Max(0, math32.Min(p.elapsed, d))
	case PingPong:
		t := wrap(p.elapsed, 2*d)
		if t > d {
			t = 2*d - t
		}
		return t
	default:
		return wrap(p.elapsed, d)
	}
}

func wrap(t, d float32) float32 {
	t = math32.Mod(t, d)
	if t < 0 {
		t += d
	}
	return t
}

// Status returns a snapshot of the playback state.
func (p *Player) Status() PlaybackStatus {
	s := PlaybackStatus{
		State:   p.state,
		Mode:    p.mode,
		Clip:    p.current,
		Time:    p.SampleTime(),
		Elapsed: p.elapsed,
		Speed:   p.speed,
	}
	if c := p.Current(); c != nil {
		s.ClipName = c.name
		s.Duration = c.duration
	}
	return s
}

// Update advances playback and, when it moved, writes the current clip's
// pose into target. It returns whether the pose was applied.
func (p *Player) Update(target PoseTarget, dt float32) bool {
	if !p.Advance(dt) {
		return false
	}
	p.Apply(target)
	return true
}

// Apply samples the current clip at the current time and writes the result
// into target. Nodes the clip does not animate keep their transform.
func (p *Player) Apply(target PoseTarget) {
	clip := p.Current()
	if clip == nil {
		return
	}
	p.pose = clip.Sample(p.SampleTime(), p.pose)

	for node, pose := range p.pose {
		var err error
		if pose.Has(Translation) {
			err = target.SetTranslation(node, pose.Translation)
		}
		if err == nil && pose.Has(Rotation) {
			err = target.SetRotation(node, pose.Rotation)
		}
		if err == nil && pose.Has(Scale) {
			err = target.SetScale(node, pose.Scale)
		}
		if err == nil && pose.Has(Weights) {
			err = target.SetWeights(node, pose.Weights)
		}
		if err != nil && !p.warned[node] {
			p.warned[node] = true
			p.log.Warn("pose not applied", zap.String("clip", clip.name), zap.Int("node", node), zap.Error(err))
		}
	}
}
