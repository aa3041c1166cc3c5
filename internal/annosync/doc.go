// Package annosync reconciles user-drawn horizontal price-level annotations
// across every open surface of an instrument onto one destination surface.
//
// The host offers no locking over the annotation namespace, so correctness
// rests on naming convention alone: mirrored copies carry a deterministic
// name derived from the source annotation and source surface, the
// destination's old mirrors are purged before each pass, and copies are
// recreated from scratch. Repeating a sync with unchanged inputs yields an
// identical mirror set.
package annosync
