// Package session owns the sending side of lifecycle delivery.
//
// Ownership boundary:
// - message id assignment
// - pending frame outbox keyed by message id
// - retry/backoff and redelivery flagging
//
// Receivers drop redelivered frames they already applied through
// lifecycle.Deduplicator, so a sender may redeliver until acknowledged.
package session
