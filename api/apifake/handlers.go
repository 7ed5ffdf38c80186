package apifake

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/kaziflow-client/internal/utils"
	"github.com/jrsteele09/kaziflow-client/risk"
	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/shopspring/decimal"
)

// profileBody carries no id, matching the real service's response model.
type profileBody struct {
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	CompanyName *string    `json:"company_name"`
	Role        users.Role `json:"role"`
}

func toProfileBody(p users.Profile) profileBody {
	return profileBody{
		Email:       p.Email,
		FullName:    p.FullName,
		CompanyName: utils.NonEmpty(p.CompanyName),
		Role:        p.Role,
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		FullName    string `json:"full_name"`
		CompanyName string `json:"company_name"`
		Role        string `json:"role"`
		Password    string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []validationIssue{fieldIssue("body", "invalid JSON")})
		return
	}

	var issues []validationIssue
	if strings.TrimSpace(req.Email) == "" {
		issues = append(issues, fieldIssue("email", "Field required"))
	}
	if strings.TrimSpace(req.FullName) == "" {
		issues = append(issues, fieldIssue("full_name", "Field required"))
	}
	role := users.RoleVendor
	if req.Role != "" {
		parsed, err := users.ParseRole(req.Role)
		if err != nil || !parsed.Authenticated() {
			issues = append(issues, fieldIssue("role", "Input should be 'vendor', 'retailer', 'bank' or 'admin'"))
		}
		role = parsed
	}
	if len(req.Password) > 72 {
		issues = append(issues, fieldIssue("password", "String should have at most 72 characters"))
	}
	if len(issues) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []validationIssue{fieldIssue("password", err.Error())})
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	key := strings.ToLower(req.Email)
	if _, exists := s.users[key]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	u := &user{
		profile: users.Profile{
			ID:          uuid.NewString(),
			Email:       req.Email,
			FullName:    strings.TrimSpace(req.FullName),
			CompanyName: strings.TrimSpace(req.CompanyName),
			Role:        role,
		},
		passwordHash: hash,
	}
	s.users[key] = u
	writeJSON(w, http.StatusCreated, toProfileBody(u.profile))
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	s.lock.Lock()
	defer s.lock.Unlock()
	u, ok := s.users[strings.ToLower(username)]
	if !ok || !users.CheckPasswordHash(password, u.passwordHash) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	signed, err := s.issueToken(u)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": signed,
		"token_type":   "bearer",
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()
	writeJSON(w, http.StatusOK, toProfileBody(userFromContext(r).profile))
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName    *string `json:"full_name"`
		CompanyName *string `json:"company_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []validationIssue{fieldIssue("body", "invalid JSON")})
		return
	}
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, []validationIssue{fieldIssue("full_name", "must not be empty")})
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	u := userFromContext(r)
	if req.FullName != nil {
		u.profile.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.CompanyName != nil {
		u.profile.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	writeJSON(w, http.StatusOK, toProfileBody(u.profile))
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []validationIssue{fieldIssue("body", "invalid JSON")})
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	u := userFromContext(r)
	if !users.CheckPasswordHash(req.CurrentPassword, u.passwordHash) {
		writeDetail(w, http.StatusBadRequest, "Incorrect current password")
		return
	}
	hash, err := users.HashPassword(req.NewPassword)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	u.passwordHash = hash
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Password updated successfully"})
}

type notificationBody struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
	IsRead    bool   `json:"is_read"`
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	list := s.notifications[userFromContext(r).profile.ID]
	body := make([]notificationBody, 0, len(list))
	// Newest first
	for i := len(list) - 1; i >= 0; i-- {
		n := list[i]
		body = append(body, notificationBody{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			CreatedAt: formatTimestamp(n.CreatedAt),
			IsRead:    n.IsRead,
		})
	}
	writeJSON(w, http.StatusOK, body)
}

// markRead succeeds for unknown ids, as the real service does.
func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.lock.Lock()
	defer s.lock.Unlock()
	for _, n := range s.notifications[userFromContext(r).profile.ID] {
		if n.ID == id {
			n.IsRead = true
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type invoiceBody struct {
	ID          string      `json:"id"`
	VendorID    string      `json:"vendor_id"`
	RetailerID  *string     `json:"retailer_id"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	QRCode      *string     `json:"qr_code"`
	IsVerified  bool        `json:"is_verified"`
	AIRiskScore *int        `json:"ai_risk_score"`
	DueDate     string      `json:"due_date"`
	CreatedAt   string      `json:"created_at"`
}

func toInvoiceBody(inv *invoice) invoiceBody {
	return invoiceBody{
		ID:          inv.ID,
		VendorID:    inv.VendorID,
		Amount:      json.Number(inv.Amount.String()),
		Description: inv.Description,
		Status:      inv.Status,
		QRCode:      utils.NonEmpty(inv.QRCode),
		DueDate:     formatTimestamp(inv.DueDate),
		CreatedAt:   formatTimestamp(inv.CreatedAt),
	}
}

// listInvoices shows vendors their own invoices and everyone else all of them.
func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	u := userFromContext(r)
	var list []*invoice
	if u.profile.Role == users.RoleVendor {
		list = s.invoices[u.profile.ID]
	} else {
		for _, vendorInvoices := range s.invoices {
			list = append(list, vendorInvoices...)
		}
		sort.Slice(list, func(i, j int) bool {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		})
	}

	body := make([]invoiceBody, 0, len(list))
	for _, inv := range list {
		body = append(body, toInvoiceBody(inv))
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		DueDate     string          `json:"due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []validationIssue{fieldIssue("body", "invalid JSON")})
		return
	}

	var issues []validationIssue
	if !req.Amount.IsPositive() {
		issues = append(issues, fieldIssue("amount", "ensure this value is greater than 0"))
	}
	if strings.TrimSpace(req.Description) == "" {
		issues = append(issues, fieldIssue("description", "field required"))
	}
	dueDate, err := utils.ParseTimestamp(req.DueDate)
	if err != nil || dueDate.IsZero() {
		issues = append(issues, fieldIssue("due_date", "invalid datetime format"))
	}
	if len(issues) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	u := userFromContext(r)
	inv := &invoice{
		ID:          uuid.NewString(),
		VendorID:    u.profile.ID,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		Status:      "pending",
		DueDate:     dueDate,
		CreatedAt:   s.now(),
	}
	inv.QRCode = invoiceQRCode(inv.ID)
	s.invoices[u.profile.ID] = append(s.invoices[u.profile.ID], inv)
	writeJSON(w, http.StatusCreated, toInvoiceBody(inv))
}

type riskAssessmentBody struct {
	ID        string `json:"id"`
	VendorID  string `json:"vendor_id"`
	CreatedAt string `json:"created_at"`
	risk.Score
}

func (s *Server) analyzeRisk(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	role := userFromContext(r).profile.Role
	s.lock.Unlock()
	if role != users.RoleBank && role != users.RoleAdmin {
		writeDetail(w, http.StatusForbidden, "Not authorized")
		return
	}

	var subject map[string]any
	if err := json.NewDecoder(r.Body).Decode(&subject); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []validationIssue{fieldIssue("body", "invalid JSON")})
		return
	}
	if subject == nil {
		subject = map[string]any{}
	}
	subject["subject_id"] = chi.URLParam(r, "id")

	s.lock.Lock()
	s.lastSubject = subject
	response := s.riskResponse
	s.lock.Unlock()

	if response == nil {
		response = riskAssessmentBody{
			ID:        uuid.NewString(),
			VendorID:  chi.URLParam(r, "id"),
			CreatedAt: formatTimestamp(s.now()),
			Score:     defaultRiskResponse(),
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// invoiceQRCode stands in for the PNG the real service renders.
func invoiceQRCode(id string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("kaziflow://invoice/"+id))
}
