package cli

import (
	"os"

	"github.com/jrsteele09/kaziflow-client/api"
	"github.com/jrsteele09/kaziflow-client/risk"
	"github.com/jrsteele09/kaziflow-client/users"
)

const (
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m" // Bright black, often appears as gray

	GreenInverse = "\033[7;32m"
	RedInverse   = "\033[7;31m"

	ResetColor = "\033[0m" // Reset to default color
)

var roleColors = map[users.Role]string{
	users.RolePublic:   Gray,
	users.RoleVendor:   Green,
	users.RoleRetailer: Cyan,
	users.RoleBank:     Blue,
	users.RoleAdmin:    Magenta,
}

var invoiceStatusColors = map[api.InvoiceStatus]string{
	api.InvoicePending:  Yellow,
	api.InvoiceApproved: Green,
	api.InvoicePaid:     Green,
	api.InvoiceFinanced: Cyan,
	api.InvoiceRejected: Red,
}

var riskLevelColors = map[risk.Level]string{
	risk.LevelLow:    Green,
	risk.LevelMedium: Yellow,
	risk.LevelHigh:   Red,
}

// painter wraps text in colour codes unless colour is switched off.
type painter struct {
	enabled bool
}

func newPainter(opts *options) painter {
	_, noColor := os.LookupEnv("NO_COLOR")
	return painter{enabled: !opts.noColor && !noColor}
}

func (p painter) paint(colour, s string) string {
	if !p.enabled || colour == "" {
		return s
	}
	return colour + s + ResetColor
}

func (p painter) role(r users.Role) string {
	return p.paint(roleColors[r], r.String())
}

func (p painter) invoiceStatus(s api.InvoiceStatus) string {
	return p.paint(invoiceStatusColors[s], string(s))
}

func (p painter) riskLevel(l risk.Level) string {
	return p.paint(riskLevelColors[l], string(l))
}
