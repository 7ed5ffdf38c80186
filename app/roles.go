package app

import (
	"context"
	"strings"

	"github.com/jrsteele09/kaziflow-client/internal/config"
	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/jrsteele09/kaziflow-client/token"
	"github.com/jrsteele09/kaziflow-client/token/jwt"
	"github.com/jrsteele09/kaziflow-client/token/oidc"
	"github.com/pkg/errors"
)

const (
	StrategyClaims    = "claims"
	StrategyHeuristic = "heuristic"
	StrategyOIDC      = "oidc"
)

// NewRoleResolver picks how a role is derived from a fresh credential. The
// claims strategy degrades to the email heuristic when the token carries no
// role claim, or when no secret is set and the token cannot be decoded. With a
// secret, a token with a bad signature or past its expiry fails the login.
func NewRoleResolver(ctx context.Context, cfg config.RoleConfig) (token.RoleResolver, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.GetRoleStrategy())) {
	case StrategyClaims, "":
		claims := jwt.NewClaimsResolver(cfg.GetTokenSecret())
		return token.Fallback(claims, token.EmailHeuristic{}, claims.Recoverable), nil
	case StrategyHeuristic:
		return token.EmailHeuristic{}, nil
	case StrategyOIDC:
		if cfg.GetOIDCIssuer() == "" || cfg.GetOIDCClientID() == "" {
			return nil, errors.Wrap(apperrors.ErrInvalidRequest, "[NewRoleResolver] OIDC_ISSUER and OIDC_CLIENT_ID are required")
		}
		resolver, err := oidc.New(ctx, cfg.GetOIDCIssuer(), cfg.GetOIDCClientID())
		if err != nil {
			return nil, errors.Wrap(err, "[NewRoleResolver] OIDC discovery failed")
		}
		return resolver, nil
	default:
		return nil, errors.Wrapf(apperrors.ErrUnsupported, "[NewRoleResolver] unknown role strategy %q", cfg.GetRoleStrategy())
	}
}
