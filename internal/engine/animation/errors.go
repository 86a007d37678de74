package animation

import (
	"errors"
	"fmt"
)

// Load-time validation errors. A channel failing any of these is dropped
// from its clip; the rest of the clip stays playable.
var (
	ErrEmptyChannel     = errors.New("channel has no keyframes")
	ErrKeyframeCount    = errors.New("keyframe values do not match timestamps")
	ErrNonMonotonic     = errors.New("timestamps are not non-decreasing")
	ErrPropertyMismatch = errors.New("channel values do not match its property")
	ErrNodeOutOfRange   = errors.New("target node out of range")
)

// ChannelError wraps a validation error with the channel that caused it.
type ChannelError struct {
	Clip     string
	Channel  int
	Node     int
	Property Property
	Err      error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("clip %q channel %d (node %d, %s): %v", e.Clip, e.Channel, e.Node, e.Property, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// ErrUnknownMode is returned when parsing an unrecognised playback mode name.
var ErrUnknownMode = errors.New("unknown playback mode")
