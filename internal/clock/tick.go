package clock

import "fmt"

// Tick is a wrapping logical time counter.
type Tick uint32

// Sub returns t-u modulo 2^32 read as a signed value.
func (t Tick) Sub(u Tick) int32 {
	return int32(uint32(t) - uint32(u))
}

func (t Tick) Add(d int32) Tick {
	return Tick(uint32(t) + uint32(d))
}

func (t Tick) After(u Tick) bool { return t.Sub(u) > 0 }

func (t Tick) Before(u Tick) bool { return t.Sub(u) < 0 }

// NextBoundary returns the first multiple of step strictly after t on the
// raw counter. A zero step returns t.
func NextBoundary(t Tick, step uint32) Tick {
	if step == 0 {
		return t
	}
	return t + Tick(step-uint32(t)%step)
}

// TimeSpec is the tick span over which a value is valid, both ends
// inclusive. End may have wrapped past Start.
type TimeSpec struct {
	Start Tick
	End   Tick
}

// Span is the number of ticks from Start to End.
func (s TimeSpec) Span() uint32 {
	return uint32(s.End) - uint32(s.Start)
}

// Valid reports whether End is not behind Start.
func (s TimeSpec) Valid() bool {
	return s.End.Sub(s.Start) >= 0
}

func (s TimeSpec) Contains(t Tick) bool {
	return uint32(t)-uint32(s.Start) <= s.Span()
}

// After orders specs by start tick.
func (s TimeSpec) After(o TimeSpec) bool {
	return s.Start.After(o.Start)
}

func (s TimeSpec) String() string {
	return fmt.Sprintf("[%d..%d]", uint32(s.Start), uint32(s.End))
}
