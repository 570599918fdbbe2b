package bag

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	perr "bagpipe/internal/platform/errors"
)

// Single records larger than this abort the partition; GH Archive hours carry
// multi-megabyte push events, so the cap is generous
const maxScanTokenSize = 32 * 1024 * 1024

// partitionReader streams decoded records from one partition file.
// Decompression and decoding are fused; only within-partition record order
// is exposed
type partitionReader struct {
	f          *os.File
	gz         *gzip.Reader
	sc         *bufio.Scanner
	compressed bool
	err        error
	line       int
	records    int
	bytes      int64
}

// openPartition opens the backing file and prepares the decode stream.
// An unopenable file is a PartitionUnavailable; an unreadable gzip header is
// a RecordDecode (corrupt data, not a transient fault)
func openPartition(p Partition) (*partitionReader, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodePartitionUnavailable, "open %s", p.Path)
	}
	var src io.Reader = f
	var gz *gzip.Reader
	if p.Compressed {
		gz, err = gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, perr.Wrapf(err, perr.ErrorCodeRecordDecode, "gzip header %s", p.Path)
		}
		src = gz
	}
	sc := bufio.NewScanner(src)
	buf := make([]byte, 512*1024)
	sc.Buffer(buf, maxScanTokenSize)
	return &partitionReader{f: f, gz: gz, sc: sc, compressed: p.Compressed}, nil
}

// Next decodes the next record; returns io.EOF when the partition is drained.
// A malformed line fails the partition with RecordDecode; corrupt data is a
// correctness issue and is never skipped
func (rd *partitionReader) Next() (any, error) {
	if rd.err != nil {
		return nil, rd.err
	}
	for {
		if !rd.sc.Scan() {
			if err := rd.sc.Err(); err != nil {
				if rd.compressed {
					rd.err = perr.Wrapf(err, perr.ErrorCodeRecordDecode, "corrupt stream after line %d", rd.line)
				} else {
					rd.err = perr.Wrapf(err, perr.ErrorCodePartitionUnavailable, "read after line %d", rd.line)
				}
				return nil, rd.err
			}
			rd.err = io.EOF
			return nil, io.EOF
		}
		line := rd.sc.Bytes()
		rd.line++
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var v any
		if err := json.Unmarshal(line, &v); err != nil {
			rd.err = perr.Wrapf(err, perr.ErrorCodeRecordDecode, "malformed record at line %d", rd.line)
			return nil, rd.err
		}
		rd.records++
		rd.bytes += int64(len(line) + 1) // include newline
		return v, nil
	}
}

// Close closes the decode stream and the underlying file
func (rd *partitionReader) Close() error {
	var first error
	if rd.gz != nil {
		if err := rd.gz.Close(); err != nil {
			first = err
		}
	}
	if rd.f != nil {
		if err := rd.f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Stats returns the number of records decoded and total uncompressed bytes read so far
func (rd *partitionReader) Stats() (records int, bytes int64) {
	return rd.records, rd.bytes
}
