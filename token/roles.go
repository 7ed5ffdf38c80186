package token

import (
	"context"
	"strings"

	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/rs/zerolog/log"
)

// RoleResolver derives the access role for a freshly issued credential.
// identifier is what the user logged in with (their email).
type RoleResolver interface {
	ResolveRole(ctx context.Context, identifier, credential string) (users.Role, error)
}

// RoleResolverFunc adapts a plain function to RoleResolver.
type RoleResolverFunc func(ctx context.Context, identifier, credential string) (users.Role, error)

func (f RoleResolverFunc) ResolveRole(ctx context.Context, identifier, credential string) (users.Role, error) {
	return f(ctx, identifier, credential)
}

// EmailHeuristic picks a role from substrings of the login identifier. It is
// meant for demos and tests where the credential carries no role claim.
// Rules are applied in order and a later match wins.
type EmailHeuristic struct{}

var _ RoleResolver = EmailHeuristic{}

var heuristicRules = []struct {
	substring string
	role      users.Role
}{
	{"bank", users.RoleBank},
	{"admin", users.RoleAdmin},
	{"retailer", users.RoleRetailer},
}

func (EmailHeuristic) ResolveRole(_ context.Context, identifier, _ string) (users.Role, error) {
	return RoleFromIdentifier(identifier), nil
}

// RoleFromIdentifier applies the substring rules; anything unmatched is a
// vendor. Matching is case-sensitive, so "Bank@x" is a vendor.
func RoleFromIdentifier(identifier string) users.Role {
	role := users.RoleVendor
	for _, rule := range heuristicRules {
		if strings.Contains(identifier, rule.substring) {
			role = rule.role
		}
	}
	return role
}

// Fallback tries primary and degrades to secondary when primary fails with
// an error recoverable accepts. Any other error is returned as is. A nil
// recoverable accepts every error.
func Fallback(primary, secondary RoleResolver, recoverable func(error) bool) RoleResolver {
	return RoleResolverFunc(func(ctx context.Context, identifier, credential string) (users.Role, error) {
		role, err := primary.ResolveRole(ctx, identifier, credential)
		if err == nil {
			return role, nil
		}
		if recoverable != nil && !recoverable(err) {
			return "", err
		}
		log.Warn().Err(err).Msg("Primary role resolution failed, using fallback strategy")
		return secondary.ResolveRole(ctx, identifier, credential)
	})
}
