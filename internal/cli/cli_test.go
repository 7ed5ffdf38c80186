package cli_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/kaziflow-client/api/apifake"
	"github.com/jrsteele09/kaziflow-client/internal/cli"
	"github.com/jrsteele09/kaziflow-client/internal/config"
	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/jrsteele09/kaziflow-client/risk"
	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/stretchr/testify/require"
)

const (
	vendorEmail = "vera@vendor.co.ke"
	password    = "Mavuno2024"
)

func setup(t *testing.T) *apifake.Server {
	t.Helper()
	config.ResetFile()
	fake := apifake.Start()
	t.Cleanup(fake.Close)

	t.Setenv("API_BASE_URL", fake.URL())
	t.Setenv("STORE_PATH", filepath.Join(t.TempDir(), "session.yaml"))
	t.Setenv("STORE_KEY", "")
	t.Setenv("ROLE_STRATEGY", "heuristic")
	t.Setenv("ENV", "TEST")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("NOTIFICATION_POLL_INTERVAL", "20ms")
	t.Setenv("PAYMENT_INITIATION_DELAY", "0s")
	t.Setenv("PAYMENT_CONFIRMATION_DELAY", "0s")
	t.Setenv("PAYMENT_SUCCESS_RATE", "1")
	t.Setenv("NO_COLOR", "1")
	return fake
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func login(t *testing.T, email string) {
	t.Helper()
	_, err := execute(t, "", "login", email, "--password", password)
	require.NoError(t, err)
}

func TestRegisterLoginLogout(t *testing.T) {
	setup(t)

	out, err := execute(t, "", "register", "--email", vendorEmail, "--name", "Vera Wanjiku", "--password", password)
	require.NoError(t, err)
	require.Contains(t, out, "Registered vera@vendor.co.ke as vendor")

	out, err = execute(t, password+"\n", "login", vendorEmail)
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as vendor")

	out, err = execute(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Role: vendor")
	require.Contains(t, out, "Views: Dashboard, Invoices, Financing, Settings")

	out, err = execute(t, "", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Signed out")

	out, err = execute(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Role: public")
	require.Contains(t, out, "Views: Welcome")
}

func TestLogin(t *testing.T) {
	t.Run("role follows the email", func(t *testing.T) {
		fake := setup(t)
		fake.AddUser("ops@kazibank.co.ke", password, "Ops", users.RoleVendor)

		out, err := execute(t, "", "login", "ops@kazibank.co.ke", "--password", password)
		require.NoError(t, err)
		require.Contains(t, out, "Signed in as bank")
	})

	t.Run("wrong password", func(t *testing.T) {
		fake := setup(t)
		fake.AddUser(vendorEmail, password, "Vera", users.RoleVendor)

		_, err := execute(t, "", "login", vendorEmail, "--password", "Wrong2024")
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		require.ErrorContains(t, err, "Incorrect username or password")
	})

	t.Run("no password on stdin", func(t *testing.T) {
		setup(t)
		_, err := execute(t, "", "login", vendorEmail)
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})
}

func TestWhoamiVerify(t *testing.T) {
	fake := setup(t)
	fake.AddUser(vendorEmail, password, "Vera", users.RoleVendor)
	login(t, vendorEmail)

	out, err := execute(t, "", "whoami", "--verify")
	require.NoError(t, err)
	require.Contains(t, out, "Role: vendor")

	fake.RevokeAll()
	_, err = execute(t, "", "whoami", "--verify")
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)

	out, err = execute(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Role: public")
}

func TestProfile(t *testing.T) {
	fake := setup(t)
	fake.AddUser(vendorEmail, password, "Vera Wanjiku", users.RoleVendor)
	login(t, vendorEmail)

	out, err := execute(t, "", "profile", "show")
	require.NoError(t, err)
	require.Contains(t, out, "Name:    Vera Wanjiku")
	require.NotContains(t, out, "Company:")

	out, err = execute(t, "", "profile", "update", "--company", "Mavuno Ltd")
	require.NoError(t, err)
	require.Contains(t, out, "Company: Mavuno Ltd")

	_, err = execute(t, "", "profile", "update")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestPassword(t *testing.T) {
	fake := setup(t)
	fake.AddUser(vendorEmail, password, "Vera", users.RoleVendor)
	login(t, vendorEmail)

	_, err := execute(t, password+"\n"+strings.Repeat("x", 73)+"\n", "password")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = execute(t, "Wrong2024\nweakpass\n", "password")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.ErrorContains(t, err, "Incorrect current password")

	out, err := execute(t, password+"\nweakpass\n", "password")
	require.NoError(t, err)
	require.Contains(t, out, "Password updated")

	_, err = execute(t, "", "login", vendorEmail, "--password", "weakpass")
	require.NoError(t, err)
}

func TestNotifications(t *testing.T) {
	fake := setup(t)
	fake.AddUser(vendorEmail, password, "Vera", users.RoleVendor)
	id := fake.AddNotification(vendorEmail, "Invoice approved", "Duka Mart approved INV-7")
	login(t, vendorEmail)

	out, err := execute(t, "", "notifications", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Invoice approved")
	require.Contains(t, out, "Duka Mart approved INV-7")
	require.Contains(t, out, "1 unread")

	out, err = execute(t, "", "notifications", "read", id)
	require.NoError(t, err)
	require.Contains(t, out, "0 unread")

	out, err = execute(t, "", "notes", "list", "--unread")
	require.NoError(t, err)
	require.Contains(t, out, "No notifications.")
}

func TestNotificationsWatch(t *testing.T) {
	fake := setup(t)
	fake.AddUser(vendorEmail, password, "Vera", users.RoleVendor)
	fake.AddNotification(vendorEmail, "Financing offer", "A bank offered to finance INV-7")

	_, err := execute(t, "", "notifications", "watch", "--for", "200ms")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	login(t, vendorEmail)
	out, err := execute(t, "", "notifications", "watch", "--for", "300ms")
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(out, "Financing offer"))
}

func TestInvoices(t *testing.T) {
	fake := setup(t)
	fake.AddUser(vendorEmail, password, "Vera", users.RoleVendor)
	login(t, vendorEmail)

	out, err := execute(t, "", "invoices", "list")
	require.NoError(t, err)
	require.Contains(t, out, "No invoices.")

	out, err = execute(t, "", "invoices", "create", "1500", "--description", "20 bags of maize", "--due", "2026-11-30")
	require.NoError(t, err)
	require.Contains(t, out, "KES 1500.00  due 2026-11-30  pending")

	out, err = execute(t, "", "invoices", "list")
	require.NoError(t, err)
	require.Contains(t, out, "20 bags of maize")

	_, err = execute(t, "", "invoices", "create", "lots", "--description", "x")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = execute(t, "", "invoices", "create", "100", "--description", " ")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Equal(t, 1, fake.Hits(apifake.RouteCreateInvoice))
}

func TestRisk(t *testing.T) {
	fake := setup(t)
	fake.AddUser("ops@kazibank.co.ke", password, "Ops", users.RoleBank)

	out, err := execute(t, "", "risk", "vendor-1")
	require.NoError(t, err)
	require.Contains(t, out, "Score: 75 (Medium)")
	require.Contains(t, out, risk.BaselineReasoning)

	login(t, "ops@kazibank.co.ke")
	out, err = execute(t, "", "risk", "vendor-1", "--field", "sector=agri")
	require.NoError(t, err)
	require.Contains(t, out, "Score: 82 (Low)")
	require.Equal(t, "agri", fake.LastRiskSubject()["sector"])
}

func TestPay(t *testing.T) {
	setup(t)

	out, err := execute(t, "", "pay", "250.5", "+254700000001")
	require.NoError(t, err)
	require.Contains(t, out, "KES 250.50 to +254700000001")
	require.Contains(t, out, " SUCCESS  TXN-")

	t.Setenv("PAYMENT_SUCCESS_RATE", "0")
	out, err = execute(t, "", "pay", "250.5", "+254700000001")
	require.ErrorIs(t, err, apperrors.ErrPaymentDeclined)
	require.Contains(t, out, "FAILED")

	_, err = execute(t, "", "pay", "-1", "+254700000001")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestViews(t *testing.T) {
	setup(t)

	out, err := execute(t, "", "views", "--role", "bank", "--view", "invoices")
	require.NoError(t, err)
	require.Contains(t, out, "Role: bank")
	require.Contains(t, out, "> dashboard  Dashboard")
	require.Contains(t, out, "  risk       Risk Analysis")
	require.NotContains(t, out, "invoices")

	out, err = execute(t, "", "views")
	require.NoError(t, err)
	require.Contains(t, out, "> landing    Welcome")
}
