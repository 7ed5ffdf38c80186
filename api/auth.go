package api

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	CompanyName string     `json:"company_name,omitempty"`
	Role        users.Role `json:"role"`
	Password    string     `json:"password"`
}

// ProfileUpdate is a partial update; nil fields are left unchanged.
type ProfileUpdate struct {
	FullName    *string `json:"full_name,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
}

func (u ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.CompanyName == nil
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*users.Profile, error) {
	var profile users.Profile
	if err := c.call(ctx, c.plain, "Register", http.MethodPost, "/auth/register", req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Login exchanges username and password for an access token using the OAuth2
// resource owner password grant (form-encoded POST /auth/token).
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.resolve("/auth/token"),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.plain)
	tok, err := conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			detail := parseDetail(retrieveErr.Body)
			if detail == "" {
				detail = retrieveErr.ErrorDescription
			}
			return "", &Error{
				Op:         "Login",
				StatusCode: retrieveErr.Response.StatusCode,
				Detail:     detail,
				Kind:       kindForStatus(retrieveErr.Response.StatusCode),
			}
		}
		return "", &Error{Op: "Login", Kind: apperrors.ErrTransport, Detail: err.Error()}
	}

	if strings.TrimSpace(tok.AccessToken) == "" {
		return "", &Error{Op: "Login", StatusCode: http.StatusOK, Kind: apperrors.ErrServer, Detail: "empty access token"}
	}
	return tok.AccessToken, nil
}

func (c *Client) Me(ctx context.Context) (*users.Profile, error) {
	var profile users.Profile
	if err := c.call(ctx, c.authed, "Me", http.MethodGet, "/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) UpdateMe(ctx context.Context, update ProfileUpdate) (*users.Profile, error) {
	var profile users.Profile
	if err := c.call(ctx, c.authed, "UpdateMe", http.MethodPatch, "/auth/me", update, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	req := changePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}
	return c.call(ctx, c.authed, "ChangePassword", http.MethodPost, "/auth/change-password", req, nil)
}
