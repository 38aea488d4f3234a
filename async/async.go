package async

import (
	"context"
	"time"
)

type Result[T any] struct {
	Value T
	Error error
}

type KeyedResult[K any, T any] struct {
	Key   K
	Value T
	Error error
}

// Map runs every operation concurrently and collects all results.
func Map[R any](
	ctx context.Context,
	ops []func() (R, error),
) ([]Result[R], error) {
	results := make(chan Result[R], len(ops))

	for _, op := range ops {
		go func(operation func() (R, error)) {
			value, err := operation()
			results <- Result[R]{Value: value, Error: err}
		}(op)
	}

	var allResults []Result[R]
	completed := 0

	for completed < len(ops) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-results:
			allResults = append(allResults, result)
			completed++
		}
	}

	return allResults, nil
}

// MapStaggered runs every operation concurrently, delaying the i-th launch
// by i*stagger to avoid contention when many operations start together. One
// operation's failure never blocks or cancels the others.
func MapStaggered[K comparable, R any](
	ctx context.Context,
	keys []K,
	stagger time.Duration,
	op func(K) (R, error),
) ([]KeyedResult[K, R], error) {
	results := make(chan KeyedResult[K, R], len(keys))

	for i, key := range keys {
		go func(delay time.Duration, k K) {
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					results <- KeyedResult[K, R]{Key: k, Error: ctx.Err()}
					return
				}
			}

			value, err := op(k)
			results <- KeyedResult[K, R]{Key: k, Value: value, Error: err}
		}(time.Duration(i)*stagger, key)
	}

	var allResults []KeyedResult[K, R]
	completed := 0

	for completed < len(keys) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-results:
			allResults = append(allResults, result)
			completed++
		}
	}

	return allResults, nil
}
