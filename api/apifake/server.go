// Package apifake is an in-memory KaziFlow backend for tests. It speaks the
// same HTTP contract as the real service: JSON bodies, FastAPI style "detail"
// errors, form encoded token exchange and HS256 bearer tokens.
package apifake

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/kaziflow-client/risk"
	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Route names a single endpoint for failure injection and hit counting.
type Route string

const (
	RouteRegister       Route = "register"
	RouteToken          Route = "token"
	RouteMe             Route = "me"
	RouteUpdateMe       Route = "update-me"
	RouteChangePassword Route = "change-password"
	RouteNotifications  Route = "notifications"
	RouteMarkRead       Route = "mark-read"
	RouteInvoices       Route = "invoices"
	RouteCreateInvoice  Route = "create-invoice"
	RouteRisk           Route = "risk"
)

const DefaultSecret = "apifake-secret"

type user struct {
	profile      users.Profile
	passwordHash string
}

type notification struct {
	ID        string
	Title     string
	Message   string
	CreatedAt time.Time
	IsRead    bool
}

type invoice struct {
	ID          string
	VendorID    string
	Amount      decimal.Decimal
	Description string
	Status      string
	QRCode      string
	DueDate     time.Time
	CreatedAt   time.Time
}

type failure struct {
	status int
	detail string
}

// Server holds all state behind a mutex; it is safe for concurrent requests.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	lock          sync.Mutex
	users         map[string]*user // by lower-case email
	issued        map[string]bool  // token ids still accepted
	notifications map[string][]*notification
	invoices      map[string][]*invoice
	riskResponse  any
	failures      map[Route]failure
	delays        map[Route]time.Duration
	hits          map[Route]int
	lastSubject   map[string]any

	router http.Handler
	ts     *httptest.Server
}

type Option func(*Server)

func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = []byte(secret)
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New returns an unstarted server. Use Start or serve Handler directly.
func New(opts ...Option) *Server {
	s := &Server{
		secret:        []byte(DefaultSecret),
		tokenTTL:      time.Hour,
		now:           time.Now,
		logger:        log.Logger.With().Str("component", "apifake").Logger(),
		users:         make(map[string]*user),
		issued:        make(map[string]bool),
		notifications: make(map[string][]*notification),
		invoices:      make(map[string][]*invoice),
		failures:      make(map[Route]failure),
		delays:        make(map[Route]time.Duration),
		hits:          make(map[Route]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Start serves on a local listener; the caller must Close it.
func Start(opts ...Option) *Server {
	s := New(opts...)
	s.ts = httptest.NewServer(s.router)
	return s
}

func (s *Server) URL() string {
	if s.ts == nil {
		return ""
	}
	return s.ts.URL
}

func (s *Server) Close() {
	if s.ts != nil {
		s.ts.Close()
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Secret() string {
	return string(s.secret)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.instrument(RouteRegister, s.register))
		r.Post("/token", s.instrument(RouteToken, s.token))

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.instrument(RouteMe, s.me))
			r.Patch("/me", s.instrument(RouteUpdateMe, s.updateMe))
			r.Post("/change-password", s.instrument(RouteChangePassword, s.changePassword))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/notifications/", s.instrument(RouteNotifications, s.listNotifications))
		r.Post("/notifications/{id}/read", s.instrument(RouteMarkRead, s.markRead))
		r.Get("/invoices/", s.instrument(RouteInvoices, s.listInvoices))
		r.Post("/invoices/", s.instrument(RouteCreateInvoice, s.createInvoice))
		r.Post("/risk/analyze/{id}", s.instrument(RouteRisk, s.analyzeRisk))
	})

	return r
}

// AddUser seeds an account and returns its profile, id included.
func (s *Server) AddUser(email, password, fullName string, role users.Role) users.Profile {
	hash, err := users.HashPassword(password)
	if err != nil {
		panic("apifake: " + err.Error())
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	profile := users.Profile{
		ID:       uuid.NewString(),
		Email:    email,
		FullName: fullName,
		Role:     role,
	}
	s.users[strings.ToLower(email)] = &user{profile: profile, passwordHash: hash}
	return profile
}

// AddNotification queues a notification for the account with email and
// returns its id.
func (s *Server) AddNotification(email, title, message string) string {
	s.lock.Lock()
	defer s.lock.Unlock()

	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		panic("apifake: unknown user " + email)
	}
	n := &notification{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	s.notifications[u.profile.ID] = append(s.notifications[u.profile.ID], n)
	return n.ID
}

// SetRiskResponse replaces the body returned by the risk endpoint. Any JSON
// encodable value is accepted, including deliberately malformed ones.
func (s *Server) SetRiskResponse(body any) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.riskResponse = body
}

// LastRiskSubject is the body of the most recent risk request.
func (s *Server) LastRiskSubject() map[string]any {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.lastSubject
}

// Fail makes route answer with status and detail until Recover is called.
func (s *Server) Fail(route Route, status int, detail string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failures[route] = failure{status: status, detail: detail}
}

func (s *Server) Recover(route Route) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.failures, route)
}

// Delay holds every request to route for d before it is handled.
func (s *Server) Delay(route Route, d time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.delays[route] = d
}

func (s *Server) Hits(route Route) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.hits[route]
}

// RevokeAll invalidates every token issued so far.
func (s *Server) RevokeAll() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.issued = make(map[string]bool)
}

func defaultRiskResponse() risk.Score {
	return risk.Score{
		Score: 82,
		Level: risk.LevelLow,
		Factors: []risk.Factor{
			{Label: "Payment History", Impact: 0.6},
			{Label: "Invoice Volume", Impact: 0.3},
			{Label: "Late Deliveries", Impact: -0.2},
		},
		Reasoning: "Consistent repayment record with growing invoice volume.",
	}
}
