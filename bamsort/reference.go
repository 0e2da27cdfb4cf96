// Package bamsort implements the external merge sort over BAM alignment
// records described in spec section 4.5: buffering records in memory up
// to a configurable size, stably sorting them under a chosen predicate,
// spilling sorted runs to temporary files, and merging the runs back into
// a sorted BGZF output stream.
package bamsort

// ReferenceEntry is one row of the reference dictionary loaded from a BAM
// header, per spec section 3's ReferenceTable: an ordered list of
// (integer id -> name) pairs with contiguous indices from 0. This is a
// trimmed-down version of the teacher's sam.Reference, carrying only name
// and length (id is positional) since the core here treats the header as
// mostly opaque and only needs enough reference metadata to rewrite it.
type ReferenceEntry struct {
	Name   string
	Length int32
}
