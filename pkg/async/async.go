// Package async runs functions concurrently and collects their results
// through futures.
package async

import (
	"context"
	"errors"
	"time"
)

var ErrTimeout = errors.New("async: operation timed out waiting for future completion")

// Future holds the eventual result of a function started by Async.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Async runs fn(ctx, param) in a new goroutine. A context that is already
// cancelled short-circuits to ctx.Err() without calling fn.
func Async[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx, param)
	}()
	return f
}

func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout waits at most timeout. A finished future is returned
// even when timeout is zero.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	default:
	}
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

// Settled is the outcome of one future.
type Settled[U any] struct {
	Value U
	Err   error
}

// Settle awaits every future, keeping both values and errors in input order.
func Settle[U any](futures ...*Future[U]) []Settled[U] {
	out := make([]Settled[U], len(futures))
	for i, f := range futures {
		out[i].Value, out[i].Err = f.Await()
	}
	return out
}

// Map starts fn for every item at once and settles the results in input
// order.
func Map[T, U any](ctx context.Context, items []T, fn func(context.Context, T) (U, error)) []Settled[U] {
	futures := make([]*Future[U], len(items))
	for i, item := range items {
		futures[i] = Async(ctx, item, fn)
	}
	return Settle(futures...)
}

// MapWithin is Map bounded by timeout for the whole set. fn gets a context
// that expires with it, and a future still running at the deadline settles
// with ErrTimeout. A timeout of zero or less means no bound.
func MapWithin[T, U any](ctx context.Context, timeout time.Duration, items []T, fn func(context.Context, T) (U, error)) []Settled[U] {
	if timeout <= 0 {
		return Map(ctx, items, fn)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	deadline := time.Now().Add(timeout)

	futures := make([]*Future[U], len(items))
	for i, item := range items {
		futures[i] = Async(ctx, item, fn)
	}
	out := make([]Settled[U], len(futures))
	for i, f := range futures {
		out[i].Value, out[i].Err = f.AwaitWithTimeout(max(time.Until(deadline), 0))
	}
	return out
}
