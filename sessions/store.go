package sessions

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Store is the single owner of the current session. Readers get copies, so a
// half-updated session is never observable.
type Store struct {
	repo Repo

	lock    sync.RWMutex
	current Session

	// transitions serializes login/logout so listeners see changes in the
	// order they were applied.
	transitions sync.Mutex
	listeners   map[int]func(Session)
	nextID      int
}

var _ oauth2.TokenSource = (*Store)(nil)

// NewStore rehydrates the session from repo. A stored credential is trusted
// as-is; call Verify to check it against the server.
func NewStore(repo Repo) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] session repo is required")
	}

	s := &Store{
		repo:      repo,
		current:   Public(),
		listeners: make(map[int]func(Session)),
	}
	s.rehydrate()
	return s, nil
}

func (s *Store) rehydrate() {
	record, err := s.repo.Load()
	if err != nil {
		log.Err(err).Msg("Failed to load persisted session, starting logged out")
		if err := s.repo.Clear(); err != nil {
			log.Err(err).Msg("Failed to clear unreadable session")
		}
		return
	}

	if record.Token == "" {
		if record.Role != "" {
			// A role without a credential means nothing
			if err := s.repo.Clear(); err != nil {
				log.Err(err).Msg("Failed to clear orphaned role")
			}
		}
		return
	}

	role, err := users.ParseRole(record.Role)
	if err != nil || !role.Authenticated() {
		log.Warn().Str("role", record.Role).Msg("Persisted role unusable, defaulting to vendor")
		role = users.RoleVendor
	}

	s.current = Session{Credential: record.Token, Role: role, Generation: 1}
	log.Debug().Str("role", role.String()).Msg("Session rehydrated")
}

// Current returns the in-memory session.
func (s *Store) Current() Session {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.current
}

// Login persists credential and role together and then makes them current.
// If persisting fails the current session is left untouched.
func (s *Store) Login(credential string, role users.Role) error {
	if strings.TrimSpace(credential) == "" {
		return errors.Wrap(apperrors.ErrInvalidSession, "[Login] credential is required")
	}
	if !role.Authenticated() {
		return errors.Wrapf(apperrors.ErrInvalidSession, "[Login] role %q cannot hold a credential", role)
	}

	s.transitions.Lock()
	defer s.transitions.Unlock()

	if err := s.repo.Save(Record{Token: credential, Role: role.String()}); err != nil {
		return errors.Wrap(err, "[Login] failed to persist session")
	}

	s.lock.Lock()
	s.current = Session{Credential: credential, Role: role, Generation: s.current.Generation + 1}
	next := s.current
	s.lock.Unlock()

	log.Info().Str("role", role.String()).Msg("Session started")
	s.notify(next)
	return nil
}

// Logout returns the store to the public session. Logging out while logged
// out does nothing. The in-memory session is cleared even when clearing the
// durable copy fails.
func (s *Store) Logout() error {
	s.transitions.Lock()
	defer s.transitions.Unlock()
	return s.logoutLocked(0)
}

// logoutLocked clears the session if it is still at generation (0 matches any).
func (s *Store) logoutLocked(generation uint64) error {
	s.lock.Lock()
	if s.current.Credential == "" || (generation != 0 && s.current.Generation != generation) {
		s.lock.Unlock()
		return nil
	}
	next := Public()
	next.Generation = s.current.Generation + 1
	s.current = next
	s.lock.Unlock()

	err := s.repo.Clear()
	log.Info().Msg("Session ended")
	s.notify(next)
	if err != nil {
		return errors.Wrap(err, "[Logout] failed to clear persisted session")
	}
	return nil
}

// Token implements oauth2.TokenSource so HTTP clients attach the current credential.
func (s *Store) Token() (*oauth2.Token, error) {
	current := s.Current()
	if !current.Authenticated() {
		return nil, apperrors.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: current.Credential, TokenType: "Bearer"}, nil
}

// Verify runs check against the server with the current credential. A
// rejection is treated as an implicit logout; any other failure leaves the
// session in place so an offline start keeps working.
func (s *Store) Verify(ctx context.Context, check func(context.Context) error) error {
	checked := s.Current()
	if !checked.Authenticated() {
		return apperrors.ErrNotAuthenticated
	}

	err := check(ctx)
	if err == nil {
		return nil
	}

	if apperrors.Is(err, apperrors.ErrUnauthorized) {
		s.transitions.Lock()
		logoutErr := s.logoutLocked(checked.Generation)
		s.transitions.Unlock()
		if logoutErr != nil {
			log.Err(logoutErr).Msg("Failed to clear rejected session")
		}
		return errors.Wrap(apperrors.ErrSessionExpired, "[Verify] credential rejected by server")
	}
	return errors.Wrap(err, "[Verify] could not verify session")
}

// Subscribe registers fn to receive every session transition after it has
// been applied. fn must not call Login or Logout. The returned func removes it.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.transitions.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.transitions.Unlock()

	return func() {
		s.transitions.Lock()
		delete(s.listeners, id)
		s.transitions.Unlock()
	}
}

// notify must be called with transitions held.
func (s *Store) notify(session Session) {
	for _, fn := range s.listeners {
		fn(session)
	}
}
