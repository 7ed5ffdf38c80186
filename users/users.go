package users

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role is the access-control tag that decides which views and actions a caller gets.
type Role string

const (
	RolePublic   Role = "public" // Unauthenticated, landing experience only
	RoleVendor   Role = "vendor"
	RoleRetailer Role = "retailer"
	RoleBank     Role = "bank"
	RoleAdmin    Role = "admin"
)

var allRoles = []Role{RolePublic, RoleVendor, RoleRetailer, RoleBank, RoleAdmin}

// Roles returns every role, PUBLIC first.
func Roles() []Role {
	return append([]Role(nil), allRoles...)
}

// ParseRole maps a wire or user supplied value onto a Role, ignoring case.
func ParseRole(s string) (Role, error) {
	candidate := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, r := range allRoles {
		if r == candidate {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Authenticated reports whether the role belongs to a logged in caller.
func (r Role) Authenticated() bool {
	return r.Valid() && r != RolePublic
}

func (r Role) String() string {
	return string(r)
}

// Profile is the caller's account as returned by /auth/me.
type Profile struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name,omitempty"`
	Role        Role   `json:"role"`
}

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

// ValidatePasswordLength rejects a password bcrypt would refuse to hash. Any
// other rule is the server's to enforce.
func ValidatePasswordLength(password string) error {
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", MaxPasswordBytes)
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
