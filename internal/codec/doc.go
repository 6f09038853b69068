// Package codec turns typed records into bytes and back.
//
// A record type declares its schema once by returning its bound fields, in
// declaration order, from Fields. Every operation here walks that list:
//
//   - Encode / Decode: full encoding, fields back to back, variable-length
//     fields prefixed by a length sized to their declared maximum.
//   - DiffEncode / DiffDecode: a change bitmap of ceil(n/8) bytes (bit i is
//     field i, LSB first within each byte) followed by the full encoding of
//     the changed fields only.
//   - MarshalTagged / UnmarshalTagged / ToMap: interchange forms keyed by
//     field number or field name.
//
// Functions in this package hold no global state. Distinct records and
// buffers may be encoded from many goroutines at once; a given
// (record, baseline) pair must have a single owner.
package codec
