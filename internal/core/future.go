package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ReadAsync starts fn in a new goroutine and returns a channel that receives
// exactly one ReadResult. The channel is buffered so the goroutine never blocks
// if the caller stops waiting.
//
// Errors returned by fn are wrapped with ErrReadFailure unless they already
// carry it or ErrUnsupportedFormat. A panic inside fn becomes a read failure.
// Reads are not cancellable once started; use Await to stop waiting.
func ReadAsync(fn ReadFunc, data []byte) <-chan ReadResult {
	ch := make(chan ReadResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in file read", "panic", r)
				ch <- ReadResult{Err: fmt.Errorf("%w: internal error: %v", ErrReadFailure, r)}
			}
		}()

		tokens, err := fn(data)
		if err != nil {
			ch <- ReadResult{Err: asReadFailure(err)}
			return
		}
		if tokens == nil {
			tokens = []string{}
		}
		ch <- ReadResult{Tokens: tokens}
	}()

	return ch
}

// Await blocks until the future resolves or ctx is done.
func Await(ctx context.Context, future <-chan ReadResult) ReadResult {
	select {
	case res := <-future:
		return res
	case <-ctx.Done():
		return ReadResult{Err: fmt.Errorf("%w: %w", ErrReadFailure, ctx.Err())}
	}
}

func asReadFailure(err error) error {
	if errors.Is(err, ErrReadFailure) || errors.Is(err, ErrUnsupportedFormat) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrReadFailure, err)
}
