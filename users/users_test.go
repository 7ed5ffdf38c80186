package users_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want users.Role
	}{
		{"bank", users.RoleBank},
		{"ADMIN", users.RoleAdmin},
		{" Retailer ", users.RoleRetailer},
		{"vendor", users.RoleVendor},
		{"public", users.RolePublic},
	} {
		got, err := users.ParseRole(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	_, err := users.ParseRole("superuser")
	require.Error(t, err)
}

func TestRoleAuthenticated(t *testing.T) {
	require.False(t, users.RolePublic.Authenticated())
	require.False(t, users.Role("").Authenticated())
	require.True(t, users.RoleVendor.Authenticated())
	require.Len(t, users.Roles(), 5)
}

func TestValidatePasswordLength(t *testing.T) {
	require.NoError(t, users.ValidatePasswordLength("password123"))
	require.NoError(t, users.ValidatePasswordLength("pw"))
	require.NoError(t, users.ValidatePasswordLength(strings.Repeat("x", users.MaxPasswordBytes)))
	require.ErrorContains(t, users.ValidatePasswordLength(strings.Repeat("x", users.MaxPasswordBytes+1)), "at most 72")

	// 24 three-byte runes fit; a 25th does not.
	require.NoError(t, users.ValidatePasswordLength(strings.Repeat("€", 24)))
	require.Error(t, users.ValidatePasswordLength(strings.Repeat("€", 25)))
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("Password123")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("Password123", hash))
	require.False(t, users.CheckPasswordHash("password123", hash))
}
