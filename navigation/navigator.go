package navigation

import (
	"sync"

	"github.com/jrsteele09/kaziflow-client/sessions"
	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/rs/zerolog/log"
)

// SessionSource is the part of the session store the navigator follows.
type SessionSource interface {
	Current() sessions.Session
	Subscribe(fn func(sessions.Session)) func()
}

// Navigator tracks the active view for the active role. The active view is
// always permitted for the role.
type Navigator struct {
	lock   sync.RWMutex
	role   users.Role
	active View
}

func NewNavigator(role users.Role) *Navigator {
	role = normalize(role)
	return &Navigator{role: role, active: DefaultView(role)}
}

func (n *Navigator) Role() users.Role {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.role
}

func (n *Navigator) Active() View {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.active
}

// Navigate opens requested if permitted, otherwise the role's default view.
// It returns the view that is now active.
func (n *Navigator) Navigate(requested View) View {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.active = ResolveView(n.role, requested)
	if n.active != requested {
		log.Debug().Str("role", n.role.String()).Str("requested", requested.String()).Str("view", n.active.String()).Msg("View not permitted, using default")
	}
	return n.active
}

// SwitchRole changes the role. The active view is kept when the new role may
// open it and reset to the new role's default otherwise.
func (n *Navigator) SwitchRole(role users.Role) View {
	role = normalize(role)

	n.lock.Lock()
	defer n.lock.Unlock()
	n.role = role
	n.active = ResolveView(role, n.active)
	return n.active
}

// Menu is the permitted views for the current role.
func (n *Navigator) Menu() []View {
	return PermittedViews(n.Role())
}

// FollowSession switches role on every session transition. The returned func
// detaches the navigator.
func (n *Navigator) FollowSession(store SessionSource) func() {
	unsubscribe := store.Subscribe(func(sessions.Session) {
		n.SwitchRole(store.Current().Role)
	})
	n.SwitchRole(store.Current().Role)
	return unsubscribe
}

func normalize(role users.Role) users.Role {
	parsed, err := users.ParseRole(role.String())
	if err != nil {
		return users.RolePublic
	}
	return parsed
}
