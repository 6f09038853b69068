package clock

import (
	"testing"

	"github.com/danmuck/simwire/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeerClockValidates(t *testing.T) {
	testlog.Start(t)

	_, err := NewPeerClock(0)
	assert.ErrorIs(t, err, ErrInvalidJump)
	_, err = NewPeerClock(5, WithGain(0))
	assert.ErrorIs(t, err, ErrInvalidGain)
	_, err = NewPeerClock(5, WithGain(1.5))
	assert.ErrorIs(t, err, ErrInvalidGain)

	c, err := NewPeerClock(5, WithGain(0.5))
	require.NoError(t, err)
	g, ok := c.Gain()
	assert.True(t, ok)
	assert.Equal(t, 0.5, g)
}

func TestAdjustDeltaFullCorrection(t *testing.T) {
	testlog.Start(t)

	c, err := NewPeerClock(20)
	require.NoError(t, err)

	got := c.AdjustDelta(115, 100, false)
	assert.Equal(t, Correction{Mode: ModeFull, Delta: 15, Step: 15}, got)
	assert.True(t, got.Converged())
	assert.Equal(t, int32(15), c.Offset())
	assert.Equal(t, Tick(115), c.Corrected(100))
	assert.Equal(t, Tick(115), c.PeerTick())
	assert.Equal(t, Tick(100), c.LocalTick())

	// Peer behind by exactly jump.
	got = c.AdjustDelta(95, 100, false)
	assert.Equal(t, ModeFull, got.Mode)
	assert.Equal(t, int32(-20), got.Delta)
	assert.Equal(t, int32(-5), c.Offset())
}

func TestAdjustDeltaConvergesInCeilDeltaOverJumpCalls(t *testing.T) {
	testlog.Start(t)

	c, err := NewPeerClock(20)
	require.NoError(t, err)

	const local, reported = Tick(1000), Tick(1060)
	var steps []Correction
	for i := 0; i < 10; i++ {
		corr := c.AdjustDelta(reported, local, false)
		steps = append(steps, corr)
		if corr.Converged() {
			break
		}
	}
	require.Len(t, steps, 3)
	assert.Equal(t, Correction{Mode: ModeBounded, Delta: 60, Step: 20, Remaining: 40}, steps[0])
	assert.Equal(t, Correction{Mode: ModeBounded, Delta: 40, Step: 20, Remaining: 20}, steps[1])
	assert.Equal(t, Correction{Mode: ModeFull, Delta: 20, Step: 20, Remaining: 0}, steps[2])
	assert.Equal(t, int32(60), c.Offset())
}

func TestAdjustDeltaBoundedNegative(t *testing.T) {
	testlog.Start(t)

	c, err := NewPeerClock(20)
	require.NoError(t, err)

	got := c.AdjustDelta(0, 100, false)
	assert.Equal(t, Correction{Mode: ModeBounded, Delta: -100, Step: -20, Remaining: -80}, got)
	assert.Equal(t, int32(-20), c.Offset())
}

func TestAdjustDeltaWraparoundMatchesSmallNumbers(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name                      string
		wrapLocal, wrapReported   Tick
		plainLocal, plainReported Tick
		delta                     int32
	}{
		{"plus 11", 4294967290, 5, 0, 11, 11},
		{"plus 15", 4294967286, 5, 0, 15, 15},
		{"minus 15", 5, 4294967286, 15, 0, -15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, jump := range []uint32{4, 11, 15, 100} {
				wrapped, err := NewPeerClock(jump)
				require.NoError(t, err)
				plain, err := NewPeerClock(jump)
				require.NoError(t, err)

				a := wrapped.AdjustDelta(tc.wrapReported, tc.wrapLocal, false)
				b := plain.AdjustDelta(tc.plainReported, tc.plainLocal, false)
				assert.Equal(t, b, a, "jump=%d", jump)
				assert.Equal(t, tc.delta, a.Delta)
				assert.Equal(t, plain.Offset(), wrapped.Offset())
			}
		})
	}
}

func TestAdjustDeltaResyncSnaps(t *testing.T) {
	testlog.Start(t)

	c, err := NewPeerClock(5)
	require.NoError(t, err)

	got := c.AdjustDelta(1_000_000, 0, true)
	assert.Equal(t, Correction{Mode: ModeResync, Delta: 1_000_000, Step: 1_000_000}, got)
	assert.Equal(t, Tick(1_000_000), c.Corrected(0))

	got = c.AdjustDelta(1_000_001, 1, false)
	assert.Equal(t, ModeFull, got.Mode)
	assert.Equal(t, int32(0), got.Delta)
}

func TestAdjustDeltaSmoothed(t *testing.T) {
	testlog.Start(t)

	c, err := NewPeerClock(10, WithGain(0.25))
	require.NoError(t, err)

	got := c.AdjustDelta(100, 0, false)
	assert.Equal(t, Correction{Mode: ModeSmoothed, Delta: 100, Step: 25, Remaining: 75}, got)

	got = c.AdjustDelta(100, 0, false)
	assert.Equal(t, int32(75), got.Delta)
	assert.Equal(t, int32(19), got.Step) // round(18.75)

	// Within jump the gain is ignored.
	c2, err := NewPeerClock(10, WithGain(0.25))
	require.NoError(t, err)
	got = c2.AdjustDelta(8, 0, false)
	assert.Equal(t, ModeFull, got.Mode)
	assert.Equal(t, int32(8), got.Step)

	// A tiny gain still makes progress.
	c3, err := NewPeerClock(1, WithGain(0.001))
	require.NoError(t, err)
	got = c3.AdjustDelta(0, 50, false)
	assert.Equal(t, int32(-1), got.Step)
}
