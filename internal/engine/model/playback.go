package model

import (
	"go.uber.org/zap"

	"github.com/Faultbox/rigging/internal/engine/animation"
)

// Player returns the model's player, nil when it has no clips.
func (m *Model) Player() *animation.Player { return m.player }

// PlaybackState returns a snapshot of playback. ok is false for models
// without clips.
func (m *Model) PlaybackState() (status animation.PlaybackStatus, ok bool) {
	if m.player == nil {
		return status, false
	}
	return m.player.Status(), true
}

// SetCurrentAnimation selects clip i and rewinds it.
func (m *Model) SetCurrentAnimation(i int) bool {
	if m.player == nil {
		m.log.Warn("model has no animations", zap.Int("index", i))
		return false
	}
	return m.player.SetCurrent(i)
}

// CycleAnimation selects the next clip, wrapping to the first. It returns
// the new index, or -1 without clips.
func (m *Model) CycleAnimation() int {
	if m.player == nil {
		return -1
	}
	return m.player.Cycle()
}

// SetPlaybackMode changes how elapsed time maps onto the clip.
func (m *Model) SetPlaybackMode(mode animation.PlaybackMode) {
	if m.player != nil {
		m.player.SetMode(mode)
	}
}

// PlayAnimation starts or resumes playback.
func (m *Model) PlayAnimation() {
	if m.player != nil {
		m.player.Play()
	}
}

// PauseAnimation freezes playback.
func (m *Model) PauseAnimation() {
	if m.player != nil {
		m.player.Pause()
	}
}

// ToggleAnimation switches between playing and paused.
func (m *Model) ToggleAnimation() {
	if m.player != nil {
		m.player.Toggle()
	}
}

// StopAnimation stops and rewinds playback.
func (m *Model) StopAnimation() {
	if m.player != nil {
		m.player.Stop()
	}
}

// ResetAnimation rewinds playback without changing its state.
func (m *Model) ResetAnimation() {
	if m.player != nil {
		m.player.Reset()
	}
}

// AnimationNames returns the clip names in playback order.
func (m *Model) AnimationNames() []string {
	if m.player == nil {
		return nil
	}
	clips := m.player.Clips()
	names := make([]string, len(clips))
	for i, c := range clips {
		names[i] = c.Name()
	}
	return names
}

// AnimationIndex returns the index of the clip called name, or -1.
func (m *Model) AnimationIndex(name string) int {
	if m.player == nil {
		return -1
	}
	return m.player.Index(name)
}
