// Package bag implements a partitioned, lazy, out-of-core bag over
// newline-delimited JSON files.
//
// A Bag is an immutable description of a transformation pipeline
// (Map/Filter/Pluck) over a set of file partitions. Building stages never
// touches data; evaluation happens only when an aggregation job's Compute is
// called, or through the short-circuiting Take. Partitions are processed
// independently and in parallel by a bounded worker pool, with per-partition
// partial results merged serially into the final result.
//
// Records are decoded with encoding/json into the usual dynamic shapes
// (nil, bool, float64, string, []any, map[string]any); schema knowledge lives
// entirely in caller-supplied functions and pluck paths.
//
// The engine favors correctness over partial results: an unreadable
// partition, a malformed record, a panicking stage function, or a pluck on a
// missing key without a default all abort the whole computation with an error
// identifying the failing partition (and stage, where applicable). Callers
// wanting lenience guard inside their own stages, e.g. PluckDefault or a
// Filter checking key presence first.
package bag
