package stroming_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/terraskye/stroming"
)

func countdown(n int) func(ctx context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		if n == 0 {
			return 0, io.EOF
		}
		n--
		return n, nil
	}
}

func TestIteratorDrainsProducer(t *testing.T) {
	got, err := stroming.NewIteratorFunc(countdown(3)).All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{2, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestIteratorErrorStopsIteration(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	iter := stroming.NewIteratorFunc(func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "first", nil
		}
		return "", boom
	})

	if !iter.Next(context.Background()) || iter.Value() != "first" {
		t.Fatalf("expected first value, got %q", iter.Value())
	}
	if iter.Next(context.Background()) {
		t.Fatal("expected Next to stop on error")
	}
	if !errors.Is(iter.Err(), boom) {
		t.Fatalf("expected %v, got %v", boom, iter.Err())
	}
	if iter.Value() != "" {
		t.Fatalf("expected zero value after error, got %q", iter.Value())
	}

	iter.Next(context.Background())
	iter.Next(context.Background())
	if calls != 2 {
		t.Fatalf("producer called %d times after termination", calls)
	}
}

func TestIteratorEOFIsNotAnError(t *testing.T) {
	iter := stroming.NewIteratorFunc(countdown(0))
	if iter.Next(context.Background()) {
		t.Fatal("expected no values")
	}
	if iter.Err() != nil {
		t.Fatalf("expected nil error on EOF, got %v", iter.Err())
	}
}

func TestSliceIterator(t *testing.T) {
	items, err := stroming.NewSliceIterator([]string{"a", "b"}).All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0] != "a" || items[1] != "b" {
		t.Fatalf("unexpected items %v", items)
	}
}

func TestSliceIteratorHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	iter := stroming.NewSliceIterator([]int{1, 2, 3})
	if iter.Next(ctx) {
		t.Fatal("expected cancelled context to stop iteration")
	}
	if !errors.Is(iter.Err(), context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", iter.Err())
	}
}

func BenchmarkSliceIterator(b *testing.B) {
	ctx := context.Background()
	items := make([]int, 64)
	for n := 0; n < b.N; n++ {
		iter := stroming.NewSliceIterator(items)
		for iter.Next(ctx) {
			_ = iter.Value()
		}
	}
}

func TestIteratorCloseRunsOnceAndStops(t *testing.T) {
	closed := 0
	it := stroming.NewIteratorFuncWithClose(countdown(5), func() { closed++ })

	if !it.Next(context.Background()) {
		t.Fatal("expected a first value")
	}
	it.Close()
	it.Close()

	if it.Next(context.Background()) {
		t.Error("Next after Close must return false")
	}
	if closed != 1 {
		t.Errorf("close func ran %d times, want 1", closed)
	}
	if err := it.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIteratorAllCloses(t *testing.T) {
	closed := false
	it := stroming.NewIteratorFuncWithClose(countdown(2), func() { closed = true })
	if _, err := it.All(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !closed {
		t.Error("All must close the iterator")
	}
}
