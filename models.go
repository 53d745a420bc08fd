package session

import (
	"time"

	"github.com/google/uuid"
)

// User is the authenticated identity as the backend reports it. Role is
// normalized once at the Store boundary; the legacy Type field is only a
// fallback for older backend responses.
type User struct {
	ID           string     `json:"id,omitempty"`
	FullName     string     `json:"fullname,omitempty"`
	Email        string     `json:"email,omitempty"`
	Role         UserRole   `json:"role,omitempty"`
	Type         UserRole   `json:"type,omitempty"`
	StudentID    string     `json:"studentId,omitempty"`
	StaffID      string     `json:"staffId,omitempty"`
	Level        string     `json:"level,omitempty"`
	Department   string     `json:"department,omitempty"`
	IsFirstLogin bool       `json:"isFirstLogin,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// NormalizedRole resolves the canonical lowercase role, falling back from
// Role to the legacy Type field.
func (u *User) NormalizedRole() UserRole {
	if u == nil {
		return ""
	}
	if u.Role != "" {
		return NormalizeRole(string(u.Role))
	}
	return NormalizeRole(string(u.Type))
}

// Normalized returns a copy with the canonical role written back to Role so
// downstream consumers never repeat the fallback logic.
func (u *User) Normalized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Role = u.NormalizedRole()
	return &clone
}

// UUID parses the backend identifier when it is uuid-shaped.
func (u *User) UUID() (uuid.UUID, error) {
	if u == nil {
		return uuid.Nil, ErrNoUser
	}
	return uuid.Parse(u.ID)
}

// AuthResult is the login/signup response: the identity plus a bearer token
// for subsequent requests. The token never reaches persisted storage.
type AuthResult struct {
	User    *User  `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// RequiresPasswordChange reports whether the account is in the forced
// first-login password reset state.
func (r *AuthResult) RequiresPasswordChange() bool {
	return r != nil && r.User != nil && r.User.IsFirstLogin
}

// ResetConfirmation is the forgot/reset password response. User is only set
// on a first-login reset, where the server returns a refreshed identity.
type ResetConfirmation struct {
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	User    *User  `json:"user,omitempty"`
}
