package apifake

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/kaziflow-client/users"
)

type contextKey string

const contextKeyUser contextKey = "user"

const timestampLayout = "2006-01-02T15:04:05.999999"

type tokenClaims struct {
	Role users.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Msg("apifake request")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Str("panic", fmt.Sprint(rec)).Str("path", r.URL.Path).Msg("apifake handler panicked")
				writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// instrument counts hits on route and applies any injected delay or failure.
func (s *Server) instrument(route Route, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		s.hits[route]++
		fail, failing := s.failures[route]
		delay := s.delays[route]
		s.lock.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeDetail(w, fail.status, fail.detail)
			return
		}
		next(w, r)
	}
}

// requireAuth validates the bearer token and puts the caller on the context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		u, err := s.authenticate(parts[1])
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUser, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) authenticate(raw string) (*user, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.issued[claims.ID] {
		return nil, fmt.Errorf("token %s revoked", claims.ID)
	}
	u, ok := s.users[strings.ToLower(claims.Subject)]
	if !ok {
		return nil, fmt.Errorf("unknown subject %s", claims.Subject)
	}
	return u, nil
}

// issueToken must be called with the lock held.
func (s *Server) issueToken(u *user) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Role: u.profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.profile.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	s.issued[claims.ID] = true
	return signed, nil
}

func userFromContext(r *http.Request) *user {
	u, _ := r.Context().Value(contextKeyUser).(*user)
	return u
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDetail answers in FastAPI's error shape. detail may be a string or a
// list of validation issues.
func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func fieldIssue(field, msg string) validationIssue {
	return validationIssue{Loc: []string{"body", field}, Msg: msg, Type: "value_error"}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
