package stroming

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Iterator is a pull iterator over values produced by a function.
// The producer returns io.EOF when exhausted.
type Iterator[T any] struct {
	nextFunc  func(ctx context.Context) (T, error)
	closeFunc func()
	closeOnce sync.Once
	current   T
	err       error
	done      bool
}

// NewIteratorFunc creates an Iterator from a producer function.
func NewIteratorFunc[T any](nextFunc func(ctx context.Context) (T, error)) *Iterator[T] {
	return &Iterator[T]{nextFunc: nextFunc}
}

// NewIteratorFuncWithClose creates an Iterator that runs closeFunc once, on
// Close.
func NewIteratorFuncWithClose[T any](nextFunc func(ctx context.Context) (T, error), closeFunc func()) *Iterator[T] {
	return &Iterator[T]{nextFunc: nextFunc, closeFunc: closeFunc}
}

// NewSliceIterator iterates over items in order.
func NewSliceIterator[T any](items []T) *Iterator[T] {
	i := 0
	return NewIteratorFunc(func(ctx context.Context) (T, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if i >= len(items) {
			return zero, io.EOF
		}
		v := items[i]
		i++
		return v, nil
	})
}

// Next advances the iterator. It returns false once the producer is
// exhausted or failed.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.done {
		return false
	}
	v, err := it.nextFunc(ctx)
	if err != nil {
		var zero T
		it.current = zero
		it.done = true
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		return false
	}
	it.current = v
	return true
}

// Value returns the current value.
func (it *Iterator[T]) Value() T {
	return it.current
}

// Err returns the error that stopped iteration, if any. io.EOF is not an error.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Close stops the iterator and releases what the producer holds. Next
// returns false afterwards. Close is safe to call more than once.
func (it *Iterator[T]) Close() {
	it.done = true
	it.closeOnce.Do(func() {
		if it.closeFunc != nil {
			it.closeFunc()
		}
	})
}

// All consumes and closes the iterator.
func (it *Iterator[T]) All(ctx context.Context) ([]T, error) {
	defer it.Close()
	var results []T
	for it.Next(ctx) {
		results = append(results, it.Value())
	}
	return results, it.Err()
}
