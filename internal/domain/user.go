package domain

import "time"

// Role is the closed set of account roles
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the stored account record. SessionTokens is the bounded list of
// currently valid refresh tokens, oldest first; it is the sole source of
// truth for refresh-token validity.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Name          string
	Age           *int
	Address       string
	MobileNumber  string
	Role          Role
	SessionTokens []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Sanitized strips the password hash and session list for anything that
// leaves the service boundary.
func (u *User) Sanitized() *User {
	out := *u
	out.PasswordHash = ""
	out.SessionTokens = nil
	return &out
}

// TokenPair is an access/refresh credential pair as returned to clients
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
