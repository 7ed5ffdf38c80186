// Package app wires the client runtime together from configuration and runs
// the login and logout flows.
package app

import (
	"context"
	"strings"
	"sync"

	"github.com/jrsteele09/kaziflow-client/api"
	"github.com/jrsteele09/kaziflow-client/internal/config"
	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/jrsteele09/kaziflow-client/navigation"
	"github.com/jrsteele09/kaziflow-client/notifications"
	"github.com/jrsteele09/kaziflow-client/payments"
	"github.com/jrsteele09/kaziflow-client/risk"
	"github.com/jrsteele09/kaziflow-client/sessions"
	"github.com/jrsteele09/kaziflow-client/sessions/filerepo"
	"github.com/jrsteele09/kaziflow-client/token"
	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// App is the client runtime. Components are exported for callers that need
// more than the flows below.
type App struct {
	Store         *sessions.Store
	API           *api.Client
	Roles         token.RoleResolver
	Notifications *notifications.Poller
	Risk          *risk.Client
	Payments      payments.Rail
	Navigator     *navigation.Navigator

	lock    sync.Mutex
	detach  []func()
	started bool
}

// New builds the runtime with the session persisted at the configured store path.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	return NewWithRepo(ctx, cfg, filerepo.New(cfg.GetStorePath(), cfg.GetStoreKey()))
}

func NewWithRepo(ctx context.Context, cfg config.Config, repo sessions.Repo) (*App, error) {
	store, err := sessions.NewStore(repo)
	if err != nil {
		return nil, errors.Wrap(err, "[app New] failed to open session store")
	}

	client, err := api.New(cfg, store)
	if err != nil {
		return nil, errors.Wrap(err, "[app New] failed to create API client")
	}

	roles, err := NewRoleResolver(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "[app New] failed to create role resolver")
	}

	simulator := payments.NewSimulator(
		payments.WithDelays(cfg.GetPaymentInitiationDelay(), cfg.GetPaymentConfirmationDelay()),
		payments.WithSuccessRate(cfg.GetPaymentSuccessRate()),
	)

	return &App{
		Store:         store,
		API:           client,
		Roles:         roles,
		Notifications: notifications.NewPoller(client, notifications.WithInterval(cfg.GetNotificationPollInterval())),
		Risk:          risk.NewClient(client),
		Payments:      simulator,
		Navigator:     navigation.NewNavigator(store.Current().Role),
	}, nil
}

// Start binds notification polling and navigation to the session. Calling it
// again does nothing until Close.
func (a *App) Start(ctx context.Context) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.started {
		return
	}
	a.started = true
	a.detach = append(a.detach,
		a.Notifications.FollowSession(ctx, a.Store),
		a.Navigator.FollowSession(a.Store),
	)
}

// Close stops polling and detaches everything Start attached.
func (a *App) Close() {
	a.lock.Lock()
	detach := a.detach
	a.detach, a.started = nil, false
	a.lock.Unlock()

	for _, fn := range detach {
		fn()
	}
}

// Login exchanges email and password for a credential, derives the role and
// starts the session.
func (a *App) Login(ctx context.Context, email, password string) (sessions.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return sessions.Session{}, errors.Wrap(apperrors.ErrInvalidRequest, "[Login] email and password are required")
	}

	credential, err := a.API.Login(ctx, email, password)
	if err != nil {
		return sessions.Session{}, err
	}

	role, err := a.Roles.ResolveRole(ctx, email, credential)
	if err != nil {
		return sessions.Session{}, errors.Wrap(err, "[Login] failed to derive role")
	}

	if err := a.Store.Login(credential, role); err != nil {
		return sessions.Session{}, err
	}
	return a.Store.Current(), nil
}

// Register creates an account. A password bcrypt cannot hash is refused before
// anything is sent; other password rules are left to the server. A missing
// role registers a vendor.
func (a *App) Register(ctx context.Context, req api.RegisterRequest) (*users.Profile, error) {
	if err := users.ValidatePasswordLength(req.Password); err != nil {
		return nil, &api.Error{Op: "Register", Kind: apperrors.ErrValidation, Detail: err.Error()}
	}
	if req.Role == "" {
		req.Role = users.RoleVendor
	}
	role, err := users.ParseRole(req.Role.String())
	if err != nil || !role.Authenticated() {
		return nil, &api.Error{Op: "Register", Kind: apperrors.ErrValidation, Detail: "role must be vendor, retailer, bank or admin"}
	}
	req.Role = role
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.CompanyName = strings.TrimSpace(req.CompanyName)

	profile, err := a.API.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Info().Str("role", profile.Role.String()).Msg("Account registered")
	return profile, nil
}

// ChangePassword applies the same length limit as Register.
func (a *App) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if err := users.ValidatePasswordLength(newPassword); err != nil {
		return &api.Error{Op: "ChangePassword", Kind: apperrors.ErrValidation, Detail: err.Error()}
	}
	return a.API.ChangePassword(ctx, currentPassword, newPassword)
}

func (a *App) Logout() error {
	return a.Store.Logout()
}

// Verify checks a rehydrated credential against the server. A rejected
// credential ends the session.
func (a *App) Verify(ctx context.Context) error {
	return a.Store.Verify(ctx, func(ctx context.Context) error {
		_, err := a.API.Me(ctx)
		return err
	})
}

// RiskScore never fails; an unreachable or unhappy scorer yields the baseline.
func (a *App) RiskScore(ctx context.Context, subject risk.Subject) risk.Score {
	return a.Risk.GetRiskScore(ctx, subject)
}

// Pay runs a mobile-money payment on the configured rail.
func (a *App) Pay(ctx context.Context, amount decimal.Decimal, phoneNumber string) (*payments.Result, error) {
	return a.Payments.Pay(ctx, payments.Request{Amount: amount, PhoneNumber: phoneNumber})
}
