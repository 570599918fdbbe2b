// bagpipe-ghstats walks a local GH Archive mirror and prints simple
// aggregates: event-type frequencies, top pushers, and top committers
package main

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"bagpipe/bag"
	"bagpipe/internal/gharchive"
	"bagpipe/internal/platform/config"
	"bagpipe/internal/platform/logger"
)

func main() {
	l := logger.Get()
	cfg := config.New().Prefix("BAG_")

	var (
		fDir     = flag.String("dir", "", "directory holding GH Archive hour files (YYYY-MM-DD-H.json.gz)")
		fGlob    = flag.String("glob", "", "explicit file glob; overrides -dir")
		fTop     = flag.Int("top", 10, "number of entries for top-pusher/top-committer lists")
		fWorkers = flag.Int("workers", cfg.MayInt("WORKERS", 0), "worker pool size; 0 = available parallelism")
		fSample  = flag.Int("sample", 0, "print the first N raw event types and exit")
	)
	flag.Parse()

	if *fDir == "" && *fGlob == "" {
		l.Panic().Msg("must provide -dir or -glob")
	}

	in, err := buildInput(*fDir, *fGlob)
	if err != nil {
		l.Panic().Err(err).Msg("enumerating partitions failed")
	}
	if in.Len() == 0 {
		l.Panic().Msg("no archive files matched")
	}
	l.Info().Int("partitions", in.Len()).Msg("input enumerated")

	ctx := context.Background()
	events := bag.New(in)
	opts := []bag.Option{
		bag.WithProgress(func(done, total int) {
			l.Debug().Int("done", done).Int("total", total).Msg("partition complete")
		}),
	}
	if *fWorkers > 0 {
		opts = append(opts, bag.WithWorkers(*fWorkers))
	}

	if *fSample > 0 {
		sample, err := events.Pluck("type").Take(ctx, *fSample)
		if err != nil {
			l.Fatal().Err(err).Msg("sample failed")
		}
		for _, v := range sample {
			fmt.Println(v)
		}
		return
	}

	// Event type frequencies
	freqs, err := events.Pluck("type").Frequencies().Compute(ctx, opts...)
	if err != nil {
		l.Fatal().Err(err).Msg("frequencies failed")
	}
	fmt.Println("== event types ==")
	for _, kc := range sortedCounts(freqs) {
		fmt.Printf("%-40s %d\n", kc.key, kc.count)
	}

	// Top pushers: actors by number of PushEvents
	pushes := events.Filter(func(v any) bool {
		t, _ := bag.GetString(v, "type")
		return t == "PushEvent"
	})
	pushCounts, err := bag.FoldBy(
		pushes,
		func(v any) string {
			login, _ := bag.GetString(v, "actor.login")
			return login
		},
		int64(0),
		func(total int64, _ any) int64 { return total + 1 },
		func(a, b int64) int64 { return a + b },
	).Compute(ctx, opts...)
	if err != nil {
		l.Fatal().Err(err).Msg("top pushers failed")
	}
	fmt.Printf("\n== top %d pushers (push events) ==\n", *fTop)
	printTop(pushCounts, *fTop)

	// Top committers: actors by number of commits across their pushes
	commitCounts, err := bag.FoldBy(
		pushes,
		func(v any) string {
			login, _ := bag.GetString(v, "actor.login")
			return login
		},
		int64(0),
		func(total int64, v any) int64 {
			commits, _ := bag.Slice(v, "payload.commits")
			return total + int64(len(commits))
		},
		func(a, b int64) int64 { return a + b },
	).Compute(ctx, opts...)
	if err != nil {
		l.Fatal().Err(err).Msg("top committers failed")
	}
	fmt.Printf("\n== top %d committers (commits pushed) ==\n", *fTop)
	printTop(commitCounts, *fTop)
}

func buildInput(dir, glob string) (*bag.Input, error) {
	if glob != "" {
		return bag.Glob(glob, bag.FormatAuto)
	}
	files, err := gharchive.HourFiles(dir)
	if err != nil {
		return nil, err
	}
	return bag.Files(bag.FormatAuto, files...), nil
}

type keyCount struct {
	key   string
	count int64
}

// sortedCounts orders by count desc, then key asc for stable output
func sortedCounts(m map[string]int64) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, c := range m {
		out = append(out, keyCount{key: k, count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func printTop(m map[string]int64, n int) {
	ranked := sortedCounts(m)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	for _, kc := range ranked {
		fmt.Printf("%-40s %d\n", kc.key, kc.count)
	}
}
