package bag

import (
	"context"
	"testing"

	perr "bagpipe/internal/platform/errors"
	kit "bagpipe/internal/platform/testkit"
)

func TestCombinatorsDoNotMutate(t *testing.T) {
	dir := t.TempDir()
	p := writeNDJSON(t, dir, "p.json", []string{`{"k":"a","n":1}`, `{"k":"b","n":2}`}, false)
	base := New(inputOf(t, p))

	// branching off a shared sub-pipeline must not affect the parent
	plucked := base.Pluck("k")
	filtered := base.Filter(func(v any) bool { return false })

	if base.Stages() != 0 {
		t.Fatalf("base mutated: %d stages", base.Stages())
	}
	if plucked.Stages() != 1 || filtered.Stages() != 1 {
		t.Fatalf("children should have exactly one stage each")
	}

	got, err := plucked.Take(context.Background(), 10)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("pluck results = %v", got)
	}

	got, err = filtered.Take(context.Background(), 10)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("filter-all bag returned %v", got)
	}
}

func TestSameBagEvaluatesTwiceIdentically(t *testing.T) {
	dir := t.TempDir()
	p := writeNDJSON(t, dir, "p.json", []string{`{"n":1}`, `{"n":2}`, `{"n":3}`}, false)
	b := New(inputOf(t, p)).Pluck("n").Map(func(v any) any { return v.(float64) * 2 })

	first, err := b.Take(context.Background(), 10)
	if err != nil {
		t.Fatalf("first Take: %v", err)
	}
	second, err := b.Take(context.Background(), 10)
	if err != nil {
		t.Fatalf("second Take: %v", err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("lengths = %d, %d, want 3, 3", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("run %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestMapFilterOrderPreserved(t *testing.T) {
	dir := t.TempDir()
	p := writeNDJSON(t, dir, "p.json",
		[]string{`{"n":1}`, `{"n":2}`, `{"n":3}`, `{"n":4}`, `{"n":5}`}, false)

	b := New(inputOf(t, p)).
		Pluck("n").
		Filter(func(v any) bool { return int(v.(float64))%2 == 1 }).
		Map(func(v any) any { return v.(float64) * 10 })

	got, err := b.Take(context.Background(), 10)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	want := []float64{10, 30, 50}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %v, want %v (within-partition order must hold)", i, got[i], want[i])
		}
	}
}

func TestTakeBounds(t *testing.T) {
	dir := t.TempDir()
	p1 := writeNDJSON(t, dir, "p1.json", []string{`{"n":1}`, `{"n":2}`}, false)
	p2 := writeNDJSON(t, dir, "p2.json", []string{`{"n":3}`}, false)
	b := New(inputOf(t, p1, p2))

	got, err := b.Take(context.Background(), 2)
	if err != nil {
		t.Fatalf("Take(2): %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Take(2) returned %d records", len(got))
	}

	// n larger than the dataset returns everything
	got, err = b.Take(context.Background(), 99)
	if err != nil {
		t.Fatalf("Take(99): %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Take(99) returned %d records, want 3", len(got))
	}

	got, err = b.Take(context.Background(), 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("Take(0) = (%v, %v), want empty", got, err)
	}

	_, err = b.Take(context.Background(), -1)
	kit.MustCode(t, err, perr.ErrorCodeInvalidArgument)
}

func TestTakeStopsReadingUnneededPartitions(t *testing.T) {
	dir := t.TempDir()
	p1 := writeNDJSON(t, dir, "p1.json", []string{`{"n":1}`, `{"n":2}`, `{"n":3}`}, false)
	// second partition does not exist; Take must not touch it
	b := New(inputOf(t, p1, dir+"/missing.json"))

	got, err := b.Take(context.Background(), 3)
	if err != nil {
		t.Fatalf("Take satisfiable from partition 0 must not open partition 1: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Take(3) returned %d records", len(got))
	}

	// forcing the scan past partition 0 surfaces the unavailable partition
	_, err = b.Take(context.Background(), 4)
	kit.MustCode(t, err, perr.ErrorCodePartitionUnavailable)
	kit.MustPartition(t, err, 1)
}

func TestPluckMissingAndDefault(t *testing.T) {
	dir := t.TempDir()
	p := writeNDJSON(t, dir, "p.json", []string{`{"a":1}`, `{"b":2}`}, false)
	in := inputOf(t, p)

	_, err := New(in).Pluck("a").Take(context.Background(), 10)
	kit.MustCode(t, err, perr.ErrorCodeKeyMissing)
	if st, ok := StageOf(err); !ok || st != 0 {
		t.Fatalf("StageOf = (%d, %v), want (0, true)", st, ok)
	}

	got, err := New(in).PluckDefault("a", float64(-1)).Take(context.Background(), 10)
	if err != nil {
		t.Fatalf("PluckDefault: %v", err)
	}
	if len(got) != 2 || got[0] != float64(1) || got[1] != float64(-1) {
		t.Fatalf("PluckDefault results = %v", got)
	}
}

func TestPluckNestedPath(t *testing.T) {
	dir := t.TempDir()
	p := writeNDJSON(t, dir, "p.json", []string{`{"actor":{"login":"alice"}}`}, false)
	got, err := New(inputOf(t, p)).Pluck("actor.login").Take(context.Background(), 1)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if got[0] != "alice" {
		t.Fatalf("nested pluck = %v, want alice", got[0])
	}
}

func TestMapPanicBecomesStageFailure(t *testing.T) {
	dir := t.TempDir()
	p := writeNDJSON(t, dir, "p.json", []string{`{"n":1}`}, false)
	b := New(inputOf(t, p)).
		Pluck("n").
		Map(func(v any) any { panic("user bug") })

	_, err := b.Take(context.Background(), 1)
	kit.MustCode(t, err, perr.ErrorCodeStageFailure)
	kit.MustPartition(t, err, 0)
	if st, ok := StageOf(err); !ok || st != 1 {
		t.Fatalf("StageOf = (%d, %v), want (1, true)", st, ok)
	}
	kit.MustContain(t, err.Error(), "user bug")
}
