package bag

import (
	"context"
	"errors"

	perr "bagpipe/internal/platform/errors"
)

type stageKind uint8

const (
	stageMap stageKind = iota
	stageFilter
	stagePluck
)

// stage is one tagged pipeline step. Storing stages as data (rather than
// pre-composed closures) keeps pipelines inspectable and safely shareable
// across compute calls
type stage struct {
	kind       stageKind
	mapFn      func(any) any
	pred       func(any) bool
	path       string
	def        any
	hasDefault bool
}

// Bag is an immutable, lazy description of a record pipeline over an Input.
// Every combinator returns a new Bag; nothing reads data until an
// aggregation job's Compute or Take runs
type Bag struct {
	input  *Input
	stages []stage
}

// New returns a bag over the given input with an empty pipeline
func New(in *Input) *Bag {
	return &Bag{input: in}
}

// with copies the stage list and appends one stage, so existing bags are
// never mutated and sub-pipelines stay reusable
func (b *Bag) with(st stage) *Bag {
	stages := make([]stage, len(b.stages), len(b.stages)+1)
	copy(stages, b.stages)
	return &Bag{input: b.input, stages: append(stages, st)}
}

// Map applies fn to every record. fn must be total: a panic aborts the
// enclosing computation with a StageFailure naming the partition and stage
func (b *Bag) Map(fn func(any) any) *Bag {
	return b.with(stage{kind: stageMap, mapFn: fn})
}

// Filter retains records where pred holds
func (b *Bag) Filter(pred func(any) bool) *Bag {
	return b.with(stage{kind: stageFilter, pred: pred})
}

// Pluck projects a dot-separated path out of every record.
// A record lacking the path fails the computation with KeyMissing
func (b *Bag) Pluck(path string) *Bag {
	return b.with(stage{kind: stagePluck, path: path})
}

// PluckDefault is Pluck with a fallback for records lacking the path
func (b *Bag) PluckDefault(path string, def any) *Bag {
	return b.with(stage{kind: stagePluck, path: path, def: def, hasDefault: true})
}

// Stages returns the number of pipeline stages (for inspection/logging)
func (b *Bag) Stages() int { return len(b.stages) }

// errShortCircuit stops a partition scan early; it never escapes Take
var errShortCircuit = errors.New("bag: short circuit")

// Take eagerly evaluates until n records are collected, reading partitions
// in source order and skipping any partition it no longer needs. Returns
// min(n, total) records
func (b *Bag) Take(ctx context.Context, n int) ([]any, error) {
	if n < 0 {
		return nil, perr.InvalidArgf("take: n must be >= 0, got %d", n)
	}
	out := make([]any, 0, n)
	if n == 0 {
		return out, nil
	}
	for _, p := range b.input.parts {
		err := runPartition(ctx, p, b.stages, func(v any, _ int) error {
			out = append(out, v)
			if len(out) == n {
				return errShortCircuit
			}
			return nil
		})
		if err != nil && !errors.Is(err, errShortCircuit) {
			return nil, err
		}
		if len(out) == n {
			break
		}
	}
	return out, nil
}
