package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/domain"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/dto"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/token"
)

// mockUserRepository is an in-memory UserRepository. A single mutex covers
// every operation, matching the atomic read-modify-write contract of the
// real session-list statements.
type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (r *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *mockUserRepository) GetBySessionToken(ctx context.Context, tok string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		for _, t := range u.SessionTokens {
			if t == tok {
				cp := *u
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (r *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[user.ID]; ok {
		tokens := existing.SessionTokens
		cp := *user
		cp.SessionTokens = tokens
		r.users[user.ID] = &cp
	}
	return nil
}

func (r *mockUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, _ := r.GetByEmail(ctx, email)
	return u != nil, nil
}

func (r *mockUserRepository) List(ctx context.Context, cursor string, limit int, desc bool) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *mockUserRepository) AppendSessionToken(ctx context.Context, userID, tok string, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil
	}
	// matches the repository contract: keep the newest limit-1, oldest out
	if excess := len(u.SessionTokens) - (limit - 1); excess > 0 {
		u.SessionTokens = u.SessionTokens[excess:]
	}
	u.SessionTokens = append(u.SessionTokens, tok)
	return nil
}

func (r *mockUserRepository) RotateSessionToken(ctx context.Context, userID, oldToken, newToken string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, nil
	}
	for i, t := range u.SessionTokens {
		if t == oldToken {
			u.SessionTokens = append(u.SessionTokens[:i], u.SessionTokens[i+1:]...)
			u.SessionTokens = append(u.SessionTokens, newToken)
			return true, nil
		}
	}
	return false, nil
}

func (r *mockUserRepository) RemoveSessionToken(ctx context.Context, userID, tok string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil
	}
	for i, t := range u.SessionTokens {
		if t == tok {
			u.SessionTokens = append(u.SessionTokens[:i], u.SessionTokens[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *mockUserRepository) ClearSessionTokens(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.SessionTokens = []string{}
	}
	return nil
}

func (r *mockUserRepository) sessionCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		return len(u.SessionTokens)
	}
	return 0
}

func (r *mockUserRepository) hasSession(userID, tok string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false
	}
	for _, t := range u.SessionTokens {
		if t == tok {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T, repo *mockUserRepository) AuthService {
	t.Helper()
	tokens, err := token.NewManager(token.Config{
		Secret:          "test-secret-key",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 2 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	// low bcrypt cost keeps the tests fast
	return NewAuthService(repo, tokens, &AuthServiceConfig{BcryptCost: 4, SessionLimit: 5})
}

func register(t *testing.T, svc AuthService, email string) *dto.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    email,
		Password: "Password1",
		Name:     "Test User",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return resp
}

func TestRegister(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(t, repo)

	t.Run("successful registration stores a session", func(t *testing.T) {
		resp := register(t, svc, "Test@Example.com")
		if resp.AccessToken == "" || resp.RefreshToken == "" {
			t.Fatal("Register() returned empty tokens")
		}
		if resp.User.Email != "test@example.com" {
			t.Errorf("email not normalized: %q", resp.User.Email)
		}
		if resp.User.Role != "user" {
			t.Errorf("Role = %q, want user", resp.User.Role)
		}
		if !repo.hasSession(resp.User.ID, resp.RefreshToken) {
			t.Error("refresh token not stored in session list")
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.Register(context.Background(), &dto.RegisterRequest{
			Email:    "test@example.com",
			Password: "Password1",
			Name:     "Dup",
		})
		if !errors.Is(err, ErrUserAlreadyExists) {
			t.Errorf("Register() error = %v, want ErrUserAlreadyExists", err)
		}
	})
}

func TestLogin(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(t, repo)
	register(t, svc, "login@example.com")

	t.Run("correct credentials", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "login@example.com",
			Password: "Password1",
		})
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if !repo.hasSession(resp.User.ID, resp.RefreshToken) {
			t.Error("refresh token not stored in session list")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "login@example.com",
			Password: "WrongPass1",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "nobody@example.com",
			Password: "Password1",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestRefresh_RotatesToken(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(t, repo)
	first := register(t, svc, "rotate@example.com")

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if repo.hasSession(first.User.ID, first.RefreshToken) {
		t.Error("consumed refresh token still in session list")
	}
	if !repo.hasSession(second.User.ID, second.RefreshToken) {
		t.Error("replacement refresh token not in session list")
	}

	t.Run("consumed token cannot be replayed", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), first.RefreshToken)
		if !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("Refresh() error = %v, want ErrInvalidRefreshToken", err)
		}
	})
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(t, repo)
	resp := register(t, svc, "kind@example.com")

	_, err := svc.Refresh(context.Background(), resp.AccessToken)
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Refresh() with access token error = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefresh_UnknownToken(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(t, repo)
	register(t, svc, "unknown@example.com")

	// Signed correctly but never stored: a forged session
	tokens, err := token.NewManager(token.Config{Secret: "test-secret-key"})
	if err != nil {
		t.Fatal(err)
	}
	pair, err := tokens.IssuePair("ghost", "ghost@example.com", domain.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Refresh() error = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefresh_ConcurrentDoubleSpend(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(t, repo)
	resp := register(t, svc, "race@example.com")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Refresh(context.Background(), resp.RefreshToken)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d concurrent refreshes succeeded with one token, want exactly 1", succeeded)
	}
}

func TestSessionLimit_EvictsOldest(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(t, repo)
	first := register(t, svc, "limit@example.com")
	userID := first.User.ID

	login := func() *dto.AuthResponse {
		resp, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "limit@example.com",
			Password: "Password1",
		})
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		return resp
	}

	// registration already opened session 1; open four more to hit the cap
	var sessions []*dto.AuthResponse
	sessions = append(sessions, first)
	for i := 0; i < 4; i++ {
		sessions = append(sessions, login())
	}
	if got := repo.sessionCount(userID); got != 5 {
		t.Fatalf("session count = %d, want 5", got)
	}

	// the 6th session must evict exactly the oldest
	sixth := login()
	if got := repo.sessionCount(userID); got != 5 {
		t.Fatalf("session count after eviction = %d, want 5", got)
	}
	if repo.hasSession(userID, sessions[0].RefreshToken) {
		t.Error("oldest session survived eviction")
	}
	for i, s := range sessions[1:] {
		if !repo.hasSession(userID, s.RefreshToken) {
			t.Errorf("session %d was evicted, want only the oldest gone", i+1)
		}
	}
	if !repo.hasSession(userID, sixth.RefreshToken) {
		t.Error("newest session missing")
	}

	t.Run("evicted token fails refresh", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), sessions[0].RefreshToken)
		if !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("Refresh() error = %v, want ErrInvalidRefreshToken", err)
		}
	})

	// A list left oversized by a previously higher limit must come back
	// under the cap on the next append, not one entry per append
	t.Run("oversized list converges in one append", func(t *testing.T) {
		stale := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7"}
		repo.mu.Lock()
		repo.users[userID].SessionTokens = append([]string{}, stale...)
		repo.mu.Unlock()

		newest := login()

		if got := repo.sessionCount(userID); got != 5 {
			t.Fatalf("session count = %d, want 5", got)
		}
		for _, tok := range stale[:4] {
			if repo.hasSession(userID, tok) {
				t.Errorf("stale token %s survived, want oldest four evicted", tok)
			}
		}
		for _, tok := range stale[4:] {
			if !repo.hasSession(userID, tok) {
				t.Errorf("token %s was evicted, want newest four kept", tok)
			}
		}
		if !repo.hasSession(userID, newest.RefreshToken) {
			t.Error("newest session missing")
		}
	})
}

func TestLogout(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(t, repo)
	resp := register(t, svc, "logout@example.com")

	if err := svc.Logout(context.Background(), resp.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if repo.hasSession(resp.User.ID, resp.RefreshToken) {
		t.Error("session survived logout")
	}

	t.Run("idempotent", func(t *testing.T) {
		if err := svc.Logout(context.Background(), resp.RefreshToken); err != nil {
			t.Errorf("second Logout() error = %v, want nil", err)
		}
	})

	t.Run("logged-out token fails refresh", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), resp.RefreshToken)
		if !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("Refresh() error = %v, want ErrInvalidRefreshToken", err)
		}
	})
}

func TestLogoutAll(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(t, repo)
	resp := register(t, svc, "everywhere@example.com")

	for i := 0; i < 2; i++ {
		if _, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "everywhere@example.com",
			Password: "Password1",
		}); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
	}

	if err := svc.LogoutAll(context.Background(), resp.User.ID); err != nil {
		t.Fatalf("LogoutAll() error = %v", err)
	}
	if got := repo.sessionCount(resp.User.ID); got != 0 {
		t.Errorf("session count = %d, want 0", got)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(t, repo)
	resp := register(t, svc, "authn@example.com")

	t.Run("valid bearer credential", func(t *testing.T) {
		user, err := svc.Authenticate(context.Background(), "Bearer "+resp.AccessToken)
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if user.ID != resp.User.ID {
			t.Errorf("ID = %q, want %q", user.ID, resp.User.ID)
		}
		if user.PasswordHash != "" {
			t.Error("authenticated identity leaks password hash")
		}
		if user.SessionTokens != nil {
			t.Error("authenticated identity leaks session list")
		}
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "")
		if !errors.Is(err, ErrNoToken) {
			t.Errorf("Authenticate() error = %v, want ErrNoToken", err)
		}
	})

	t.Run("refresh token rejected as access credential", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "Bearer "+resp.RefreshToken)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Authenticate() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("deleted user", func(t *testing.T) {
		if err := svc.DeleteUser(context.Background(), resp.User.ID); err != nil {
			t.Fatalf("DeleteUser() error = %v", err)
		}
		_, err := svc.Authenticate(context.Background(), "Bearer "+resp.AccessToken)
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("Authenticate() error = %v, want ErrUserNotFound", err)
		}
	})
}

func TestEndToEnd_RegisterRefreshLogout(t *testing.T) {
	repo := newMockUserRepository()
	svc := newTestService(t, repo)

	pairA := register(t, svc, "e2e@example.com")

	pairB, err := svc.Refresh(context.Background(), pairA.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh(A) error = %v", err)
	}

	if _, err := svc.Refresh(context.Background(), pairA.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Refresh(A) after rotation error = %v, want ErrInvalidRefreshToken", err)
	}

	if err := svc.Logout(context.Background(), pairB.RefreshToken); err != nil {
		t.Fatalf("Logout(B) error = %v", err)
	}

	if _, err := svc.Refresh(context.Background(), pairB.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Refresh(B) after logout error = %v, want ErrInvalidRefreshToken", err)
	}
}
