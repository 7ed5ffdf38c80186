package resilience

import (
	"context"
	"fmt"

	"github.com/jrsteele09/kaziflow-client/internal/logging"
)

// Call is a remote operation that can fail.
type Call[T any] func(ctx context.Context) (T, error)

// WithFallback wraps call so that it never fails: an error or a panic is logged
// under name and replaced by a fresh value from fallback.
func WithFallback[T any](name string, call Call[T], fallback func() T) func(ctx context.Context) T {
	return func(ctx context.Context) (result T) {
		defer func() {
			if r := recover(); r != nil {
				logging.From(ctx).Error().
					Str("call", name).
					Err(fmt.Errorf("panic: %v", r)).
					Msg("Call panicked, using fallback")
				result = fallback()
			}
		}()

		value, err := call(ctx)
		if err != nil {
			logging.From(ctx).Warn().Err(err).Str("call", name).Msg("Call failed, using fallback")
			return fallback()
		}
		return value
	}
}

// Static returns a fallback func that always yields v.
func Static[T any](v T) func() T {
	return func() T { return v }
}
