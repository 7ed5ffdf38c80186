package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/jrsteele09/kaziflow-client/internal/utils"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoicePending  InvoiceStatus = "pending"
	InvoiceApproved InvoiceStatus = "approved"
	InvoiceRejected InvoiceStatus = "rejected"
	InvoicePaid     InvoiceStatus = "paid"
	InvoiceFinanced InvoiceStatus = "financed"
)

type Invoice struct {
	ID          string          `json:"id"`
	VendorID    string          `json:"vendor_id"`
	RetailerID  string          `json:"retailer_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Status      InvoiceStatus   `json:"status"`
	QRCode      string          `json:"qr_code,omitempty"` // data URL of a PNG
	IsVerified  bool            `json:"is_verified"`
	AIRiskScore *int            `json:"ai_risk_score,omitempty"`
	DueDate     time.Time       `json:"due_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (i *Invoice) UnmarshalJSON(data []byte) error {
	type alias Invoice
	var raw struct {
		alias
		RetailerID *string `json:"retailer_id"`
		QRCode     *string `json:"qr_code"`
		DueDate    string  `json:"due_date"`
		CreatedAt  string  `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	dueDate, err := utils.ParseTimestamp(raw.DueDate)
	if err != nil {
		return err
	}
	createdAt, err := utils.ParseTimestamp(raw.CreatedAt)
	if err != nil {
		return err
	}
	*i = Invoice(raw.alias)
	i.RetailerID = utils.Value(raw.RetailerID)
	i.QRCode = utils.Value(raw.QRCode)
	i.DueDate = dueDate
	i.CreatedAt = createdAt
	return nil
}

// NewInvoice is the body of POST /invoices/.
type NewInvoice struct {
	Amount      decimal.Decimal
	Description string
	DueDate     time.Time
}

// Validate checks the invoice before it is sent.
func (n NewInvoice) Validate() error {
	invalid := func(detail string) error {
		return &Error{Op: "CreateInvoice", Kind: apperrors.ErrValidation, Detail: detail}
	}
	if !n.Amount.IsPositive() {
		return invalid("amount must be greater than zero")
	}
	if strings.TrimSpace(n.Description) == "" {
		return invalid("description is required")
	}
	if n.DueDate.IsZero() {
		return invalid("due date is required")
	}
	return nil
}

func (n NewInvoice) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount      json.Number `json:"amount"`
		Description string      `json:"description"`
		DueDate     string      `json:"due_date"`
	}{
		Amount:      json.Number(n.Amount.String()),
		Description: strings.TrimSpace(n.Description),
		DueDate:     n.DueDate.UTC().Format(time.RFC3339),
	})
}

func (c *Client) ListInvoices(ctx context.Context) ([]Invoice, error) {
	list := make([]Invoice, 0)
	if err := c.call(ctx, c.authed, "ListInvoices", http.MethodGet, "/invoices/", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CreateInvoice(ctx context.Context, invoice NewInvoice) (*Invoice, error) {
	if err := invoice.Validate(); err != nil {
		return nil, err
	}
	var created Invoice
	if err := c.call(ctx, c.authed, "CreateInvoice", http.MethodPost, "/invoices/", invoice, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
