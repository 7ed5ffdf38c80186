package resilience_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/kaziflow-client/internal/resilience"
	"github.com/stretchr/testify/require"
)

func TestWithFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("success passes through", func(t *testing.T) {
		call := resilience.WithFallback("ok", func(context.Context) (int, error) { return 7, nil }, resilience.Static(-1))
		require.Equal(t, 7, call(ctx))
	})

	t.Run("error yields fallback", func(t *testing.T) {
		call := resilience.WithFallback("fails", func(context.Context) (int, error) { return 7, errors.New("boom") }, resilience.Static(-1))
		require.Equal(t, -1, call(ctx))
	})

	t.Run("panic yields fallback", func(t *testing.T) {
		call := resilience.WithFallback("panics", func(context.Context) (int, error) { panic("nil map") }, resilience.Static(-1))
		require.Equal(t, -1, call(ctx))
	})

	t.Run("fallback is fresh per call", func(t *testing.T) {
		call := resilience.WithFallback("slice", func(context.Context) ([]string, error) { return nil, errors.New("x") },
			func() []string { return []string{"baseline"} })
		first := call(ctx)
		first[0] = "mutated"
		require.Equal(t, []string{"baseline"}, call(ctx))
	})
}
