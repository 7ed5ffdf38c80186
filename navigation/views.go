package navigation

import (
	"slices"
	"strings"

	"github.com/jrsteele09/kaziflow-client/users"
)

type View string

const (
	ViewLanding   View = "landing"
	ViewDashboard View = "dashboard"
	ViewInvoices  View = "invoices"
	ViewFinancing View = "financing"
	ViewRisk      View = "risk"
	ViewPartners  View = "partners"
	ViewUsers     View = "users"
	ViewSettings  View = "settings"
)

var viewLabels = map[View]string{
	ViewLanding:   "Welcome",
	ViewDashboard: "Dashboard",
	ViewInvoices:  "Invoices",
	ViewFinancing: "Financing",
	ViewRisk:      "Risk Analysis",
	ViewPartners:  "Partners",
	ViewUsers:     "Management",
	ViewSettings:  "Settings",
}

// Label is the menu text for v.
func (v View) Label() string {
	if label, ok := viewLabels[v]; ok {
		return label
	}
	return string(v)
}

func (v View) String() string {
	return string(v)
}

// ParseView accepts a view id in any case. Unknown ids are returned as-is and
// are simply never permitted.
func ParseView(s string) View {
	return View(strings.ToLower(strings.TrimSpace(s)))
}

// Menu order. A role's permitted views keep this order.
var menu = []struct {
	view  View
	roles []users.Role
}{
	{ViewDashboard, []users.Role{users.RoleVendor, users.RoleRetailer, users.RoleBank, users.RoleAdmin}},
	{ViewInvoices, []users.Role{users.RoleVendor, users.RoleRetailer}},
	{ViewFinancing, []users.Role{users.RoleVendor, users.RoleBank}},
	{ViewRisk, []users.Role{users.RoleBank, users.RoleAdmin}},
	{ViewPartners, []users.Role{users.RoleAdmin, users.RoleBank}},
	{ViewUsers, []users.Role{users.RoleAdmin}},
	{ViewSettings, []users.Role{users.RoleVendor, users.RoleRetailer, users.RoleBank, users.RoleAdmin}},
}

// PermittedViews lists the views role may open, in menu order. The public
// role only gets the landing view. The result is never empty.
func PermittedViews(role users.Role) []View {
	role, err := users.ParseRole(role.String())
	if err != nil || !role.Authenticated() {
		return []View{ViewLanding}
	}
	views := make([]View, 0, len(menu))
	for _, item := range menu {
		if slices.Contains(item.roles, role) {
			views = append(views, item.view)
		}
	}
	return views
}

func Permitted(role users.Role, v View) bool {
	return slices.Contains(PermittedViews(role), v)
}

// DefaultView is where role lands after login or a role switch.
func DefaultView(role users.Role) View {
	return PermittedViews(role)[0]
}

// ResolveView returns requested when role may open it and the role's default
// view otherwise. It never fails.
func ResolveView(role users.Role, requested View) View {
	if Permitted(role, requested) {
		return requested
	}
	return DefaultView(role)
}
