// Package clock keeps per-peer logical tick counters aligned.
//
// Ticks are 32-bit counters that wrap. Every comparison and difference goes
// through Tick.Sub, which reads the unsigned distance as a signed 32-bit
// value, so ordering stays correct across the wrap as long as the two ticks
// are within 2^31 of each other.
//
// A PeerClock is owned by one goroutine. Synchronizer wraps a table of them
// behind a mutex for callers that share it.
package clock
