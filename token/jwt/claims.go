package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/kaziflow-client/internal/utils"
	"github.com/jrsteele09/kaziflow-client/token"
	"github.com/jrsteele09/kaziflow-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var (
	ErrNoRoleClaim = errors.New("token carries no role claim")
	ErrEmptyToken  = errors.New("empty token")
)

// ClaimsResolver reads the access role from the credential's own claims.
// With a shared secret the HS256 signature and expiry are checked; without one
// the claims are decoded unverified and the server stays the authority.
type ClaimsResolver struct {
	secret []byte
}

var _ token.RoleResolver = (*ClaimsResolver)(nil)

func NewClaimsResolver(secret string) *ClaimsResolver {
	r := &ClaimsResolver{}
	if secret != "" {
		r.secret = []byte(secret)
	}
	return r
}

func (r *ClaimsResolver) Verifies() bool {
	return r.secret != nil
}

// Recoverable reports whether err from ResolveRole leaves room for another
// strategy. A token that fails verification never does; a genuine token
// without a role claim, or any token when nothing is verified, does.
func (r *ClaimsResolver) Recoverable(err error) bool {
	return !r.Verifies() || errors.Is(err, ErrNoRoleClaim)
}

// Claims decodes rawToken.
func (r *ClaimsResolver) Claims(rawToken string) (jwtlib.MapClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrEmptyToken
	}

	if r.secret == nil {
		unverified, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
		if err != nil {
			return nil, fmt.Errorf("failed to decode token: %w", err)
		}
		claims, ok := unverified.Claims.(jwtlib.MapClaims)
		if !ok {
			return nil, errors.New("error extracting claims")
		}
		return claims, nil
	}

	parsed, err := jwtlib.ParseWithClaims(rawToken, jwtlib.MapClaims{}, func(*jwtlib.Token) (any, error) {
		return r.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(NowTimeFunc))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims from token")
	}
	return claims, nil
}

// ResolveRole returns the role named by the "role" claim, or the first entry of "roles".
func (r *ClaimsResolver) ResolveRole(_ context.Context, _ string, credential string) (users.Role, error) {
	claims, err := r.Claims(credential)
	if err != nil {
		return "", err
	}

	raw := utils.FirstString(claims["role"])
	if raw == "" {
		raw = utils.FirstString(claims["roles"])
	}
	if raw == "" {
		return "", ErrNoRoleClaim
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

// Subject returns the "sub" claim, the account email on the KaziFlow backend.
func (r *ClaimsResolver) Subject(credential string) (string, error) {
	claims, err := r.Claims(credential)
	if err != nil {
		return "", err
	}
	sub, _ := claims["sub"].(string)
	return sub, nil
}
