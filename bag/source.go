package bag

import (
	"path/filepath"
	"sort"
	"strings"

	perr "bagpipe/internal/platform/errors"
)

// Format declares how partition files store their records
type Format uint8

const (
	// FormatAuto treats files ending in .gz as gzip-compressed NDJSON
	FormatAuto Format = iota

	// FormatNDJSON is plain newline-delimited JSON
	FormatNDJSON

	// FormatNDJSONGzip is gzip-compressed newline-delimited JSON
	FormatNDJSONGzip
)

// Partition identifies one physical input unit (one file).
// Immutable once a Bag references it
type Partition struct {
	Path       string
	Compressed bool
	Ordinal    int
}

// Input is an ordered set of partitions. Enumeration never reads file
// contents; a missing file surfaces as PartitionUnavailable at compute time
type Input struct {
	parts []Partition
}

// Glob enumerates partitions for every file matching pattern, in sorted
// path order
func Glob(pattern string, format Format) (*Input, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "glob %q", pattern)
	}
	sort.Strings(paths)
	return Files(format, paths...), nil
}

// Files builds an input over an explicit file list, preserving order
func Files(format Format, paths ...string) *Input {
	parts := make([]Partition, len(paths))
	for i, p := range paths {
		parts[i] = Partition{Path: p, Compressed: isCompressed(format, p), Ordinal: i}
	}
	return &Input{parts: parts}
}

// Partitions returns a copy of the partition list
func (in *Input) Partitions() []Partition {
	out := make([]Partition, len(in.parts))
	copy(out, in.parts)
	return out
}

// Len returns the number of partitions
func (in *Input) Len() int { return len(in.parts) }

func isCompressed(format Format, path string) bool {
	switch format {
	case FormatNDJSON:
		return false
	case FormatNDJSONGzip:
		return true
	default:
		return strings.HasSuffix(path, ".gz")
	}
}
