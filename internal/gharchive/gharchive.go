// Package gharchive provides helpers for working with a local mirror of
// GH Archive hour files (https://www.gharchive.org), the caller-side
// concern of downloading and laying out input the engine then consumes
package gharchive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	perr "bagpipe/internal/platform/errors"
)

// HourRef identifies a GH Archive hour (UTC)
type HourRef struct {
	Year  int
	Month int
	Day   int
	Hour  int
}

// NewHourRef creates an HourRef from a time.Time, converting to UTC
func NewHourRef(t time.Time) HourRef {
	ut := t.UTC()
	return HourRef{Year: ut.Year(), Month: int(ut.Month()), Day: ut.Day(), Hour: ut.Hour()}
}

// String returns the hour in GH Archive naming: YYYY-MM-DD-H
func (h HourRef) String() string {
	return fmt.Sprintf("%04d-%02d-%02d-%d", h.Year, h.Month, h.Day, h.Hour)
}

// FileName returns the archive file name for the hour: YYYY-MM-DD-H.json.gz
func (h HourRef) FileName() string {
	return h.String() + ".json.gz"
}

// ParseHourName parses an archive file name back into its hour
func ParseHourName(name string) (HourRef, bool) {
	base := strings.TrimSuffix(filepath.Base(name), ".json.gz")
	t, err := time.Parse("2006-01-02-15", base)
	if err != nil {
		return HourRef{}, false
	}
	return NewHourRef(t), true
}

// HourFiles lists the GH Archive hour files in dir, sorted chronologically.
// Non-archive files are ignored
func HourFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodePartitionUnavailable, "read dir %s", dir)
	}
	type hourFile struct {
		path string
		hour HourRef
	}
	var files []hourFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		hr, ok := ParseHourName(e.Name())
		if !ok {
			continue
		}
		files = append(files, hourFile{path: filepath.Join(dir, e.Name()), hour: hr})
	}
	sort.Slice(files, func(i, j int) bool {
		a, b := files[i].hour, files[j].hour
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Hour < b.Hour
	})
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}
