package bag

import (
	"context"

	perr "bagpipe/internal/platform/errors"
)

// FreqJob counts occurrences of each distinct (scalar) record value
type FreqJob struct {
	bag *Bag
}

// Frequencies returns a job that counts occurrences of each distinct value
// flowing out of the pipeline. Values are canonicalized scalars (string,
// number, bool, null); aggregate shapes are a caller error
func (b *Bag) Frequencies() *FreqJob {
	return &FreqJob{bag: b}
}

// Compute runs the job. Counts are summed across partitions, so the result
// is independent of partitioning and processing order
func (j *FreqJob) Compute(ctx context.Context, opts ...Option) (map[string]int64, error) {
	local := func(ctx context.Context, p Partition) (map[string]int64, error) {
		m := make(map[string]int64)
		err := runPartition(ctx, p, j.bag.stages, func(v any, _ int) error {
			k, err := scalarKey(v)
			if err != nil {
				return err
			}
			m[k]++
			return nil
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	merge := func(a, b map[string]int64) (map[string]int64, error) {
		for k, n := range b {
			a[k] += n
		}
		return a, nil
	}
	return runJob(ctx, j.bag, "frequencies", make(map[string]int64), local, merge, opts)
}

// FoldJob is a grouped fold: a per-key accumulator folded partition-locally
// with binop, then merged across partitions with combine
type FoldJob[K comparable, A any] struct {
	bag     *Bag
	key     func(any) K
	initial A
	binop   func(A, any) A
	combine func(A, A) A
}

// FoldBy builds a grouped fold over b. For each record, key extracts the
// group; the group's accumulator starts at initial and is updated as
// acc = binop(acc, record). Partition-local accumulators for the same key
// are merged with combine.
//
// Correctness contract: binop and combine must be arranged so that partition
// boundaries never change the result (combine associative and commutative,
// and combine(binop(initial, r), initial) == binop(initial, r)). The
// partitioning is a parallelism choice, not semantic; a violation is a
// caller programming error, not an engine bug.
//
// A free function because Go methods cannot introduce type parameters
func FoldBy[K comparable, A any](
	b *Bag,
	key func(any) K,
	initial A,
	binop func(A, any) A,
	combine func(A, A) A,
) *FoldJob[K, A] {
	return &FoldJob[K, A]{bag: b, key: key, initial: initial, binop: binop, combine: combine}
}

// Compute runs the fold. key and binop panics surface as StageFailure
// attributed to the aggregation stage and the failing partition
func (j *FoldJob[K, A]) Compute(ctx context.Context, opts ...Option) (map[K]A, error) {
	if j.key == nil || j.binop == nil || j.combine == nil {
		return nil, perr.InvalidArgf("foldby: key, binop, and combine are required")
	}
	aggStage := len(j.bag.stages)

	local := func(ctx context.Context, p Partition) (map[K]A, error) {
		m := make(map[K]A)
		err := runPartition(ctx, p, j.bag.stages, func(v any, _ int) error {
			k, err := callKey(j.key, v)
			if err != nil {
				return perr.WithStage(err, aggStage)
			}
			acc, ok := m[k]
			if !ok {
				acc = j.initial
			}
			acc, err = callFold(j.binop, acc, v)
			if err != nil {
				return perr.WithStage(err, aggStage)
			}
			m[k] = acc
			return nil
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	merge := func(a, b map[K]A) (map[K]A, error) {
		for k, acc := range b {
			if prev, ok := a[k]; ok {
				merged, err := callCombine(j.combine, prev, acc)
				if err != nil {
					return nil, perr.WithStage(err, aggStage)
				}
				a[k] = merged
			} else {
				a[k] = acc
			}
		}
		return a, nil
	}
	return runJob(ctx, j.bag, "foldby", make(map[K]A), local, merge, opts)
}

// scored is one top-k candidate; part/ord implement the first-encountered
// tie-break (partition ordinal, then within-partition emit order)
type scored struct {
	value any
	score float64
	part  int
	ord   int
}

// ranksAbove reports whether a outranks b: higher score first, ties broken
// by first-encountered order. Total over all candidates since (part, ord)
// pairs are unique
func ranksAbove(a, b scored) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.part != b.part {
		return a.part < b.part
	}
	return a.ord < b.ord
}

// insertRanked inserts it into a ranked slice, keeping at most n entries.
// Linear insertion; n is small by design (per-partition state is bounded)
func insertRanked(list []scored, it scored, n int) []scored {
	i := len(list)
	for i > 0 && ranksAbove(it, list[i-1]) {
		i--
	}
	if i >= n {
		return list
	}
	list = append(list, scored{})
	copy(list[i+1:], list[i:])
	list[i] = it
	if len(list) > n {
		list = list[:n]
	}
	return list
}

// mergeRanked merges two ranked slices, keeping the top n.
// Associative and commutative because ranksAbove is a total order
func mergeRanked(a, b []scored, n int) []scored {
	out := make([]scored, 0, min(len(a)+len(b), n))
	i, j := 0, 0
	for len(out) < n && (i < len(a) || j < len(b)) {
		switch {
		case i == len(a):
			out = append(out, b[j])
			j++
		case j == len(b):
			out = append(out, a[i])
			i++
		case ranksAbove(a[i], b[j]):
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	return out
}

// TopKJob selects the n highest-scoring records
type TopKJob struct {
	bag   *Bag
	n     int
	score func(any) float64
}

// TopK returns a job selecting the n highest-scoring records. Each partition
// retains at most n candidates, and local lists are merged into a global
// top n. Ties are broken deterministically by first-encountered order:
// lower partition ordinal first, then within-partition order
func (b *Bag) TopK(n int, score func(any) float64) *TopKJob {
	return &TopKJob{bag: b, n: n, score: score}
}

// Compute runs the selection, returning at most n records, best first
func (j *TopKJob) Compute(ctx context.Context, opts ...Option) ([]any, error) {
	if j.n <= 0 {
		return nil, perr.InvalidArgf("topk: n must be > 0, got %d", j.n)
	}
	if j.score == nil {
		return nil, perr.InvalidArgf("topk: score function is required")
	}
	aggStage := len(j.bag.stages)

	local := func(ctx context.Context, p Partition) ([]scored, error) {
		var list []scored
		err := runPartition(ctx, p, j.bag.stages, func(v any, ord int) error {
			s, err := callScore(j.score, v)
			if err != nil {
				return perr.WithStage(err, aggStage)
			}
			list = insertRanked(list, scored{value: v, score: s, part: p.Ordinal, ord: ord}, j.n)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return list, nil
	}
	merge := func(a, b []scored) ([]scored, error) {
		return mergeRanked(a, b, j.n), nil
	}
	ranked, err := runJob(ctx, j.bag, "topk", nil, local, merge, opts)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(ranked))
	for i, it := range ranked {
		out[i] = it.value
	}
	return out, nil
}

// Guarded user-function calls: aggregation functions are user stages too,
// so panics become StageFailure rather than taking the process down

func callKey[K comparable](fn func(any) K, v any) (k K, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.StageFailuref("foldby key function panicked: %v", r)
		}
	}()
	return fn(v), nil
}

func callFold[A any](fn func(A, any) A, acc A, v any) (out A, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.StageFailuref("foldby binop panicked: %v", r)
		}
	}()
	return fn(acc, v), nil
}

func callCombine[A any](fn func(A, A) A, a, b A) (out A, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.StageFailuref("foldby combine panicked: %v", r)
		}
	}()
	return fn(a, b), nil
}

func callScore(fn func(any) float64, v any) (s float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.StageFailuref("topk score function panicked: %v", r)
		}
	}()
	return fn(v), nil
}
