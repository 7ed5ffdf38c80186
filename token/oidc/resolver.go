package oidc

import (
	"context"
	"fmt"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/kaziflow-client/token"
	"github.com/jrsteele09/kaziflow-client/users"
)

// Resolver verifies the credential as an OIDC token issued by a known
// provider and reads the role from its claims.
type Resolver struct {
	verifier *gooidc.IDTokenVerifier
}

var _ token.RoleResolver = (*Resolver)(nil)

// New discovers the provider at issuer. An empty clientID skips the audience check.
func New(ctx context.Context, issuer, clientID string) (*Resolver, error) {
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return NewWithVerifier(provider.Verifier(&gooidc.Config{
		ClientID:          clientID,
		SkipClientIDCheck: clientID == "",
	})), nil
}

func NewWithVerifier(verifier *gooidc.IDTokenVerifier) *Resolver {
	return &Resolver{verifier: verifier}
}

type roleClaims struct {
	Role  string   `json:"role"`
	Roles []string `json:"roles"`
}

func (r *Resolver) ResolveRole(ctx context.Context, _ string, credential string) (users.Role, error) {
	idToken, err := r.verifier.Verify(ctx, credential)
	if err != nil {
		return "", fmt.Errorf("failed to verify token: %w", err)
	}

	var claims roleClaims
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("failed to read claims: %w", err)
	}

	raw := claims.Role
	if raw == "" && len(claims.Roles) > 0 {
		raw = claims.Roles[0]
	}
	if raw == "" {
		return "", fmt.Errorf("token for %q carries no role claim", idToken.Subject)
	}

	role, err := users.ParseRole(raw)
	if err != nil {
		return "", err
	}
	if !role.Authenticated() {
		return "", fmt.Errorf("role %q cannot hold a credential", role)
	}
	return role, nil
}
