package payments

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/kaziflow-client/internal/logging"
	"github.com/shopspring/decimal"
)

const (
	DefaultInitiationDelay   = 1500 * time.Millisecond
	DefaultConfirmationDelay = time.Second
	DefaultSuccessRate       = 0.9

	transactionPrefix   = "TXN-"
	transactionIDLength = 9
	transactionAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var _ Rail = (*Simulator)(nil)

// Simulator stands in for a live mobile-money gateway. A payment waits out
// the initiation delay, is approved with the configured probability and, when
// approved, waits out the confirmation delay. Once started it always runs to
// completion.
type Simulator struct {
	initiationDelay   time.Duration
	confirmationDelay time.Duration
	successRate       float64
	now               func() time.Time
	sleep             func(time.Duration)

	rngLock sync.Mutex
	rng     *rand.Rand
}

type Option func(*Simulator)

func WithDelays(initiation, confirmation time.Duration) Option {
	return func(s *Simulator) {
		s.initiationDelay = max(initiation, 0)
		s.confirmationDelay = max(confirmation, 0)
	}
}

// WithSuccessRate sets the approval probability; values outside [0, 1] are ignored.
func WithSuccessRate(rate float64) Option {
	return func(s *Simulator) {
		if rate >= 0 && rate <= 1 {
			s.successRate = rate
		}
	}
}

// WithSource makes outcomes and transaction ids deterministic.
func WithSource(src rand.Source) Option {
	return func(s *Simulator) {
		s.rng = rand.New(src)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		s.now = now
	}
}

func WithSleeper(sleep func(time.Duration)) Option {
	return func(s *Simulator) {
		s.sleep = sleep
	}
}

func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		initiationDelay:   DefaultInitiationDelay,
		confirmationDelay: DefaultConfirmationDelay,
		successRate:       DefaultSuccessRate,
		now:               time.Now,
		sleep:             time.Sleep,
		rng:               rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate pays amount from phoneNumber.
func (s *Simulator) Simulate(ctx context.Context, amount decimal.Decimal, phoneNumber string) (*Result, error) {
	return s.Pay(ctx, Request{Amount: amount, PhoneNumber: phoneNumber})
}

// Pay ignores cancellation of ctx; it is only used to correlate log lines.
func (s *Simulator) Pay(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := logging.From(ctx).With().
		Str("amount", req.Amount.String()).
		Str("phone", maskPhone(req.PhoneNumber)).
		Logger()

	logger.Info().Msg("Initiating mobile money payment")
	s.sleep(s.initiationDelay)

	if !s.approved() {
		logger.Warn().Msg("Mobile money payment declined")
		return nil, &DeclinedError{Amount: req.Amount, PhoneNumber: req.PhoneNumber}
	}

	s.sleep(s.confirmationDelay)
	result := &Result{
		TransactionID: s.transactionID(),
		Status:        StatusSuccess,
		Timestamp:     s.now().UTC(),
	}
	logger.Info().Str("transaction_id", result.TransactionID).Msg("Mobile money payment confirmed")
	return result, nil
}

func (s *Simulator) approved() bool {
	s.rngLock.Lock()
	defer s.rngLock.Unlock()
	return s.rng.Float64() < s.successRate
}

// transactionID is random enough to tell simulated payments apart. It is not
// a unique identifier.
func (s *Simulator) transactionID() string {
	s.rngLock.Lock()
	defer s.rngLock.Unlock()

	var b strings.Builder
	b.WriteString(transactionPrefix)
	for i := 0; i < transactionIDLength; i++ {
		b.WriteByte(transactionAlphabet[s.rng.IntN(len(transactionAlphabet))])
	}
	return b.String()
}
