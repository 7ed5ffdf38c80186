package sessions

import "github.com/jrsteele09/kaziflow-client/users"

// Session is who the caller is and what they may do.
// An empty Credential always comes with RolePublic.
type Session struct {
	Credential string     // Opaque bearer token, empty when logged out
	Role       users.Role // Access role derived at login
	Generation uint64     // Bumped on every login and every effective logout
}

// Public is the logged out session.
func Public() Session {
	return Session{Role: users.RolePublic}
}

func (s Session) Authenticated() bool {
	return s.Credential != "" && s.Role.Authenticated()
}
