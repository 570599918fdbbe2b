package bag

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bagpipe/internal/platform/config"
	perr "bagpipe/internal/platform/errors"
	"bagpipe/internal/platform/logger"
)

// Option tunes one Compute call
type Option func(*computeOpts)

type computeOpts struct {
	workers    int
	onProgress func(done, total int)
}

// WithWorkers bounds the worker pool for this computation.
// Values <= 0 fall back to the configured default
func WithWorkers(n int) Option {
	return func(o *computeOpts) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithProgress registers an observer invoked after each partition completes,
// with (completed, total) counts. Invoked from the merge goroutine, so
// observers need no locking; omitting it never affects results
func WithProgress(fn func(done, total int)) Option {
	return func(o *computeOpts) { o.onProgress = fn }
}

// defaultWorkers reads BAG_WORKERS, falling back to available parallelism
func defaultWorkers() int {
	return config.New().Prefix("BAG_").MayInt("WORKERS", runtime.GOMAXPROCS(0))
}

func buildOpts(opts []Option) computeOpts {
	cfg := computeOpts{workers: defaultWorkers()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.workers <= 0 {
		cfg.workers = 1
	}
	return cfg
}

// compState is the lifecycle of one computation
type compState uint8

const (
	statePending compState = iota
	stateRunning
	stateSucceeded
	stateFailed
	stateCancelled
)

func (s compState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateRunning:
		return "running"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	case stateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// runJob fans one local task per partition out over a bounded pool and folds
// partial results into the final value. The merge runs serially on this
// goroutine, so merge functions never need to be thread-safe. The first
// error cancels outstanding work and aborts the computation; no partial
// result is ever returned from a failed run
func runJob[R any](
	ctx context.Context,
	b *Bag,
	name string,
	initial R,
	local func(context.Context, Partition) (R, error),
	merge func(R, R) (R, error),
	opts []Option,
) (R, error) {
	var zero R
	cfg := buildOpts(opts)
	parts := b.input.parts

	ctx = logger.WithComputation(ctx, uuid.NewString())
	log := logger.C(ctx)
	start := time.Now()

	state := statePending
	log.Debug().
		Str("job", name).
		Str("state", state.String()).
		Int("partitions", len(parts)).
		Int("stages", len(b.stages)).
		Int("workers", cfg.workers).
		Msg("computation submitted")

	state = stateRunning
	log.Debug().Str("job", name).Str("state", state.String()).Msg("computation running")
	final := initial

	if len(parts) == 0 {
		state = stateSucceeded
		log.Info().Str("job", name).Str("state", state.String()).Dur("elapsed", time.Since(start)).
			Msg("computation finished with no partitions")
		return final, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)

	// Buffered to partition count so workers hand off without blocking and
	// cancellation never strands a send
	results := make(chan R, len(parts))
	done := make(chan error, 1)
	go func() {
		for _, p := range parts {
			p := p
			g.Go(func() error {
				r, err := local(gctx, p)
				if err != nil {
					return err
				}
				results <- r
				return nil
			})
		}
		done <- g.Wait()
		close(results)
	}()

	var mergeErr error
	completed := 0
	for r := range results {
		if mergeErr != nil {
			continue // drain; result is already doomed
		}
		final, mergeErr = merge(final, r)
		if mergeErr != nil {
			continue
		}
		completed++
		if cfg.onProgress != nil {
			cfg.onProgress(completed, len(parts))
		}
	}
	err := <-done
	if err == nil {
		err = mergeErr
	}

	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
			perr.IsCode(err, perr.ErrorCodeCancelled) {
			state = stateCancelled
		} else {
			state = stateFailed
		}
		log.Error().
			Str("job", name).
			Str("state", state.String()).
			Int("completed", completed).
			Int("partitions", len(parts)).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("computation aborted")
		return zero, err
	}

	state = stateSucceeded
	log.Info().
		Str("job", name).
		Str("state", state.String()).
		Int("partitions", len(parts)).
		Dur("elapsed", elapsed).
		Msg("computation succeeded")
	return final, nil
}
