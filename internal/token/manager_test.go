package token

import (
	"errors"
	"testing"
	"time"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret:          "test-secret-key",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 2 * time.Hour,
		Issuer:          "crowdera-test",
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestNewManager_RequiresSecret(t *testing.T) {
	if _, err := NewManager(Config{}); err == nil {
		t.Error("NewManager() expected error for empty secret")
	}
}

func TestIssuePair_RoundTrip(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.IssuePair("user-1", "test@example.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("IssuePair() returned empty token")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Error("access and refresh tokens must differ")
	}

	t.Run("access token decodes as access", func(t *testing.T) {
		claims, err := m.Decode(pair.AccessToken, KindAccess)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if claims.UserID != "user-1" {
			t.Errorf("UserID = %q, want user-1", claims.UserID)
		}
		if claims.Email != "test@example.com" {
			t.Errorf("Email = %q, want test@example.com", claims.Email)
		}
		if claims.Role != domain.RoleUser {
			t.Errorf("Role = %q, want user", claims.Role)
		}
		if claims.Kind != KindAccess {
			t.Errorf("Kind = %q, want access", claims.Kind)
		}
	})

	t.Run("refresh token decodes as refresh with jti", func(t *testing.T) {
		claims, err := m.Decode(pair.RefreshToken, KindRefresh)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if claims.Kind != KindRefresh {
			t.Errorf("Kind = %q, want refresh", claims.Kind)
		}
		if claims.ID == "" {
			t.Error("refresh claims missing jti")
		}
	})
}

func TestDecode_KindConfusion(t *testing.T) {
	m := newTestManager(t)
	pair, err := m.IssuePair("user-1", "test@example.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	t.Run("access token rejected as refresh", func(t *testing.T) {
		_, err := m.Decode(pair.AccessToken, KindRefresh)
		if !errors.Is(err, ErrWrongTokenKind) {
			t.Errorf("Decode() error = %v, want ErrWrongTokenKind", err)
		}
	})

	t.Run("refresh token rejected as access", func(t *testing.T) {
		_, err := m.Decode(pair.RefreshToken, KindAccess)
		if !errors.Is(err, ErrWrongTokenKind) {
			t.Errorf("Decode() error = %v, want ErrWrongTokenKind", err)
		}
	})
}

func TestDecode_Expired(t *testing.T) {
	m, err := NewManager(Config{
		Secret:          "test-secret-key",
		AccessTokenTTL:  -time.Minute, // already expired when issued
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	pair, err := m.IssuePair("user-1", "test@example.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	if _, err := m.Decode(pair.AccessToken, KindAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Decode() error = %v, want ErrTokenExpired", err)
	}
}

func TestDecode_ForeignSignature(t *testing.T) {
	ours := newTestManager(t)

	theirs, err := NewManager(Config{Secret: "some-other-secret"})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	pair, err := theirs.IssuePair("user-1", "test@example.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	if _, err := ours.Decode(pair.AccessToken, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Decode() error = %v, want ErrInvalidToken", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	m := newTestManager(t)
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.Decode(tok, KindAccess); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Decode(%q) error = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestFromAuthHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"bearer token", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"empty header", "", "", false},
		{"bearer with no token", "Bearer ", "", false},
		{"lowercase scheme", "bearer abc", "", false},
		{"basic auth", "Basic dXNlcjpwYXNz", "", false},
		{"bare token", "abc.def.ghi", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, ok := FromAuthHeader(tt.header)
			if ok != tt.ok || tok != tt.token {
				t.Errorf("FromAuthHeader(%q) = (%q, %v), want (%q, %v)", tt.header, tok, ok, tt.token, tt.ok)
			}
		})
	}
}
