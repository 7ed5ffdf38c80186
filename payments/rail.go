package payments

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Rail moves money over a mobile-money network.
type Rail interface {
	Pay(ctx context.Context, req Request) (*Result, error)
}

type Request struct {
	Amount      decimal.Decimal `json:"amount"`
	PhoneNumber string          `json:"phone_number"`
}

func (r Request) Validate() error {
	if !r.Amount.IsPositive() {
		return errors.Wrapf(apperrors.ErrInvalidRequest, "amount %s must be greater than zero", r.Amount)
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		return errors.Wrap(apperrors.ErrInvalidRequest, "phone number is required")
	}
	return nil
}

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Result is a completed payment. Declines are reported as errors, never as a
// Result.
type Result struct {
	TransactionID string    `json:"transaction_id"`
	Status        Status    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

// DeclinedError is an expected business outcome rather than a system fault.
// It unwraps to ErrPaymentDeclined.
type DeclinedError struct {
	Amount      decimal.Decimal
	PhoneNumber string
}

func (e *DeclinedError) Error() string {
	return apperrors.ErrPaymentDeclined.Error()
}

func (e *DeclinedError) Unwrap() error {
	return apperrors.ErrPaymentDeclined
}

// IsDeclined reports whether err is a payment decline.
func IsDeclined(err error) bool {
	return apperrors.Is(err, apperrors.ErrPaymentDeclined)
}

// maskPhone keeps the last three digits for logs.
func maskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) <= 3 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-3) + phone[len(phone)-3:]
}
