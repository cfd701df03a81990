package draft

import (
	"context"
	"sync"

	"chatdraft/backend/internal/models"
)

// Future is the result of an asynchronous operation. It completes once;
// later completions are ignored. Await is the blocking face, Then the
// callback face.
type Future[T any] struct {
	done   chan struct{}
	once   sync.Once
	value  T
	err    error
	cancel context.CancelFunc
}

// SuggestionFuture resolves to the suggestions for one draft state.
type SuggestionFuture = Future[[]models.Suggestion]

func newFuture[T any](cancel context.CancelFunc) *Future[T] {
	return &Future[T]{done: make(chan struct{}), cancel: cancel}
}

// Resolved returns an already completed future.
func Resolved[T any](value T) *Future[T] {
	f := newFuture[T](nil)
	f.complete(value, nil)
	return f
}

func (f *Future[T]) complete(value T, err error) bool {
	completed := false
	f.once.Do(func() {
		f.value, f.err = value, err
		close(f.done)
		completed = true
	})
	return completed
}

// Done is closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the future completes or ctx ends.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then calls fn with the outcome on its own goroutine once the future completes.
func (f *Future[T]) Then(fn func(T, error)) {
	go func() {
		<-f.done
		fn(f.value, f.err)
	}()
}

// Cancel aborts the operation. A pending future completes with
// ErrSuggestionCanceled.
func (f *Future[T]) Cancel() {
	var zero T
	f.complete(zero, ErrSuggestionCanceled)
	if f.cancel != nil {
		f.cancel()
	}
}
