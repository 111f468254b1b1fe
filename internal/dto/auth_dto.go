package dto

import (
	"regexp"
	"strings"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Email        string      `json:"email" binding:"required"`
	Password     string      `json:"password" binding:"required"`
	Name         string      `json:"name" binding:"required"`
	Role         domain.Role `json:"role"`
	Age          *int        `json:"age"`
	Address      string      `json:"address"`
	MobileNumber string      `json:"mobileNumber"`
}

// ValidateEmail checks the email shape
func (r *RegisterRequest) ValidateEmail() (bool, string) {
	if !emailPattern.MatchString(strings.TrimSpace(r.Email)) {
		return false, "Invalid email format"
	}
	return true, ""
}

// ValidatePassword enforces the password policy: at least 6 characters
// with one lowercase, one uppercase and one digit.
func (r *RegisterRequest) ValidatePassword() (bool, string) {
	if len(r.Password) < 6 {
		return false, "Password must be at least 6 characters long"
	}
	var lower, upper, digit bool
	for _, c := range r.Password {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return false, "Password must contain at least one lowercase letter, one uppercase letter, and one number"
	}
	return true, ""
}

// ValidateRole rejects unknown roles; an empty role defaults later
func (r *RegisterRequest) ValidateRole() (bool, string) {
	if r.Role != "" && !r.Role.Valid() {
		return false, "Unknown role"
	}
	return true, ""
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest carries a refresh token for refresh and logout
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UpdateProfileRequest carries optional profile fields; absent fields are untouched
type UpdateProfileRequest struct {
	Name         string `json:"name"`
	Age          *int   `json:"age"`
	Address      string `json:"address"`
	MobileNumber string `json:"mobileNumber"`
}

// Validate checks the updatable fields
func (r *UpdateProfileRequest) Validate() (bool, string) {
	if r.Name != "" && len(strings.TrimSpace(r.Name)) < 2 {
		return false, "Name must be at least 2 characters long"
	}
	if r.Age != nil && (*r.Age < 0 || *r.Age > 150) {
		return false, "Age must be between 0 and 150"
	}
	return true, ""
}

// UserResponse is the sanitized user view; it never carries the password
// hash or the session-token list.
type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Age          *int   `json:"age,omitempty"`
	Address      string `json:"address,omitempty"`
	MobileNumber string `json:"mobileNumber,omitempty"`
	Role         string `json:"role"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	User         *UserResponse `json:"user,omitempty"`
}

// PageMeta describes cursor pagination state for list endpoints
type PageMeta struct {
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
	Limit      int    `json:"limit"`
	SortOrder  string `json:"sortOrder"`
}
