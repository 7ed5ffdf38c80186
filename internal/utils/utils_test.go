package utils_test

import (
	"testing"

	"github.com/jrsteele09/kaziflow-client/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestFirstString(t *testing.T) {
	require.Equal(t, "bank", utils.FirstString("bank"))
	require.Equal(t, "admin", utils.FirstString([]any{1, "admin", "bank"}))
	require.Equal(t, "vendor", utils.FirstString([]string{"vendor"}))
	require.Equal(t, "", utils.FirstString([]string{}))
	require.Equal(t, "", utils.FirstString(42))
}

func TestPointers(t *testing.T) {
	require.Nil(t, utils.NonEmpty(""))
	require.Equal(t, "acme", utils.Value(utils.NonEmpty("acme")))
	require.Equal(t, 0, utils.Value[int](nil))
	require.Equal(t, 3, *utils.Ptr(3))
}

func TestParseTimestamp(t *testing.T) {
	for _, in := range []string{
		"2025-03-01T10:20:30Z",
		"2025-03-01T12:20:30+02:00",
		"2025-03-01T10:20:30",
		"2025-03-01 10:20:30",
	} {
		got, err := utils.ParseTimestamp(in)
		require.NoError(t, err, in)
		require.Equal(t, "2025-03-01T10:20:30Z", got.Format("2006-01-02T15:04:05Z07:00"), in)
	}

	got, err := utils.ParseTimestamp("2025-03-01T10:20:30.123456")
	require.NoError(t, err)
	require.Equal(t, 123456000, got.Nanosecond())

	zero, err := utils.ParseTimestamp("")
	require.NoError(t, err)
	require.True(t, zero.IsZero())

	_, err = utils.ParseTimestamp("yesterday")
	require.Error(t, err)
}
