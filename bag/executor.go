package bag

import (
	"context"
	"errors"
	"io"

	perr "bagpipe/internal/platform/errors"
	"bagpipe/internal/platform/logger"
)

// runPartition executes the map/filter/pluck pipeline over one partition,
// emitting surviving records in within-partition order. ord is the ordinal
// of the emitted record within this partition (used for top-k tie-breaks).
// Cancellation is checked cooperatively between records, never mid-record.
// Every error is attributed to the partition's ordinal
func runPartition(ctx context.Context, p Partition, stages []stage, emit func(v any, ord int) error) error {
	rd, err := openPartition(p)
	if err != nil {
		return perr.WithPartition(err, p.Ordinal)
	}
	defer func() { _ = rd.Close() }()

	ord := 0
	for {
		if err := ctx.Err(); err != nil {
			return perr.WithPartition(perr.Wrap(err, perr.ErrorCodeCancelled, "partition read cancelled"), p.Ordinal)
		}
		v, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return perr.WithPartition(err, p.Ordinal)
		}
		out, keep, err := applyStages(stages, v)
		if err != nil {
			return perr.WithPartition(err, p.Ordinal)
		}
		if !keep {
			continue
		}
		if err := emit(out, ord); err != nil {
			if errors.Is(err, errShortCircuit) {
				return err
			}
			return perr.WithPartition(err, p.Ordinal)
		}
		ord++
	}

	records, bytes := rd.Stats()
	logger.C(ctx).Debug().
		Int("partition", p.Ordinal).
		Str("path", p.Path).
		Int("records", records).
		Int("emitted", ord).
		Int64("bytes", bytes).
		Msg("partition drained")
	return nil
}

// applyStages pushes one record through the stage list.
// keep is false when a filter dropped the record
func applyStages(stages []stage, v any) (out any, keep bool, err error) {
	out = v
	for i, st := range stages {
		switch st.kind {
		case stageMap:
			out, err = callMap(st.mapFn, out)
		case stageFilter:
			var ok bool
			ok, err = callPred(st.pred, out)
			if err == nil && !ok {
				return nil, false, nil
			}
		case stagePluck:
			got, ok := Get(out, st.path)
			switch {
			case ok:
				out = got
			case st.hasDefault:
				out = st.def
			default:
				err = perr.KeyMissingf("pluck %q: key missing", st.path)
			}
		}
		if err != nil {
			return nil, false, perr.WithStage(err, i)
		}
	}
	return out, true, nil
}

// callMap invokes a user map function, converting panics into StageFailure
func callMap(fn func(any) any, v any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.StageFailuref("map function panicked: %v", r)
		}
	}()
	return fn(v), nil
}

// callPred invokes a user predicate, converting panics into StageFailure
func callPred(fn func(any) bool, v any) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.StageFailuref("filter function panicked: %v", r)
		}
	}()
	return fn(v), nil
}
