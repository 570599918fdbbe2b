package bag

import (
	perr "bagpipe/internal/platform/errors"
)

// Error-classification helpers so library consumers can branch on the engine
// failure taxonomy without importing internal packages

// IsPartitionUnavailable reports whether err means a partition's backing
// file could not be opened or read
func IsPartitionUnavailable(err error) bool {
	return perr.IsCode(err, perr.ErrorCodePartitionUnavailable)
}

// IsDecodeError reports whether err means a malformed record or corrupt
// compressed stream
func IsDecodeError(err error) bool {
	return perr.IsCode(err, perr.ErrorCodeRecordDecode)
}

// IsStageFailure reports whether err means a user-supplied function panicked
func IsStageFailure(err error) bool {
	return perr.IsCode(err, perr.ErrorCodeStageFailure)
}

// IsKeyMissing reports whether err means a pluck without a default hit a
// record lacking the key
func IsKeyMissing(err error) bool {
	return perr.IsCode(err, perr.ErrorCodeKeyMissing)
}

// IsCancelled reports whether err means the computation's context stopped it
func IsCancelled(err error) bool {
	return perr.IsCode(err, perr.ErrorCodeCancelled)
}

// IsInvalidArgument reports whether err means a bad call into the engine
func IsInvalidArgument(err error) bool {
	return perr.IsCode(err, perr.ErrorCodeInvalidArgument)
}

// PartitionOf returns the ordinal of the partition an error is attributed to
func PartitionOf(err error) (int, bool) { return perr.PartitionOf(err) }

// StageOf returns the pipeline stage index an error is attributed to.
// For aggregation-function failures this is one past the last pipeline stage
func StageOf(err error) (int, bool) { return perr.StageOf(err) }
