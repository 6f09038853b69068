package clock

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidJump = errors.New("clock: jump must be positive")
	ErrInvalidGain = errors.New("clock: gain must be in (0, 1]")
)

// Mode names the branch a correction took.
type Mode uint8

const (
	ModeFull Mode = iota
	ModeBounded
	ModeSmoothed
	ModeResync
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeBounded:
		return "bounded"
	case ModeSmoothed:
		return "smoothed"
	case ModeResync:
		return "resync"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Correction reports one AdjustDelta step.
type Correction struct {
	Mode Mode
	// Delta is the reported peer tick minus the corrected local tick before
	// the step.
	Delta int32
	// Step is what was added to the offset.
	Step int32
	// Remaining is Delta-Step: the error left after the step.
	Remaining int32
}

// Converged reports whether the step closed the whole delta.
func (c Correction) Converged() bool { return c.Remaining == 0 }

type Option func(*PeerClock)

// WithGain switches large deltas from bounded steps to exponential
// smoothing: the offset moves by round(gain*delta) per call.
func WithGain(gain float64) Option {
	return func(c *PeerClock) {
		c.gain = gain
		c.hasGain = true
	}
}

// PeerClock is the offset between local ticks and one peer's ticks.
type PeerClock struct {
	jump    uint32
	gain    float64
	hasGain bool

	offset int32
	peer   Tick
	local  Tick
}

func NewPeerClock(jump uint32, opts ...Option) (*PeerClock, error) {
	c := &PeerClock{jump: jump}
	for _, opt := range opts {
		opt(c)
	}
	if c.jump == 0 {
		return nil, ErrInvalidJump
	}
	if c.hasGain && (math.IsNaN(c.gain) || c.gain <= 0 || c.gain > 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGain, c.gain)
	}
	return c, nil
}

func (c *PeerClock) Jump() uint32 { return c.jump }

func (c *PeerClock) Gain() (float64, bool) { return c.gain, c.hasGain }

func (c *PeerClock) Offset() int32 { return c.offset }

// PeerTick is the last tick the peer reported.
func (c *PeerClock) PeerTick() Tick { return c.peer }

// LocalTick is the local tick passed with the last report.
func (c *PeerClock) LocalTick() Tick { return c.local }

// Corrected maps a local tick onto the peer's timeline.
func (c *PeerClock) Corrected(local Tick) Tick {
	return local.Add(c.offset)
}

// AdjustDelta moves the offset toward the peer's reported tick. Deltas up
// to jump, and any delta when resync is set, are corrected in one step.
// Larger deltas move by at most jump per call, or by gain*delta when a gain
// is configured.
func (c *PeerClock) AdjustDelta(reported, local Tick, resync bool) Correction {
	delta := reported.Sub(c.Corrected(local))
	c.peer = reported
	c.local = local

	out := Correction{Delta: delta}
	switch {
	case resync:
		out.Mode, out.Step = ModeResync, delta
	case abs(delta) <= int64(c.jump):
		out.Mode, out.Step = ModeFull, delta
	case !c.hasGain:
		out.Mode, out.Step = ModeBounded, boundedStep(delta, c.jump)
	default:
		out.Mode, out.Step = ModeSmoothed, smoothedStep(delta, c.gain)
	}
	out.Remaining = delta - out.Step
	c.offset = int32(uint32(c.offset) + uint32(out.Step))
	return out
}

func boundedStep(delta int32, jump uint32) int32 {
	// |delta| > jump here, so jump fits in int32.
	if delta < 0 {
		return -int32(jump)
	}
	return int32(jump)
}

func smoothedStep(delta int32, gain float64) int32 {
	step := int32(math.Round(gain * float64(delta)))
	if step == 0 {
		if delta < 0 {
			return -1
		}
		return 1
	}
	return step
}

func abs(v int32) int64 {
	if v < 0 {
		return -int64(v)
	}
	return int64(v)
}
