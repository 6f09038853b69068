// Package lifecycle is the entry lifecycle control protocol: the messages
// that announce channel and entry topology changes, their TLV/frame wire
// form, and the dispatcher that routes each update to the entry, channel
// or master handler by its wire ordinal.
//
// Ordinals are part of the wire contract. The three routes occupy
// contiguous, non-overlapping ordinal ranges; new kinds must be inserted so
// that stays true. Anything outside the ranges is a ProtocolRangeError:
// the message is dropped and the connection stays up.
package lifecycle
