package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/domain"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/dto"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/repository"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/token"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/telemetry"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoToken            = errors.New("no token provided")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidToken       = errors.New("invalid token")
	// ErrInvalidRefreshToken deliberately covers never-issued, already
	// consumed and capacity-evicted refresh tokens alike, so a caller
	// cannot probe which sessions exist.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AuthServiceConfig holds configuration for AuthService
type AuthServiceConfig struct {
	BcryptCost   int
	SessionLimit int
}

// AuthService is the session-lifecycle orchestrator: it issues credential
// pairs, keeps the per-user session list bounded, rotates refresh tokens
// on use and resolves bearer credentials to accounts.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	// Refresh exchanges a live refresh token for a new pair, consuming it.
	// A consumed, evicted or unknown token fails with ErrInvalidRefreshToken.
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	// Logout removes one session; unknown tokens are silently ignored.
	Logout(ctx context.Context, refreshToken string) error
	// LogoutAll removes every session of the user.
	LogoutAll(ctx context.Context, userID string) error
	// Authenticate resolves an Authorization header to a sanitized user.
	Authenticate(ctx context.Context, authHeader string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error)
	ListUsers(ctx context.Context, cursor string, limit int, desc bool) ([]*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *token.Manager
	config   *AuthServiceConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, tokens *token.Manager, config *AuthServiceConfig) AuthService {
	if config == nil {
		config = &AuthServiceConfig{}
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = 12
	}
	if config.SessionLimit == 0 {
		config.SessionLimit = 5
	}
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		config:   config,
	}
}

// Register creates an account and opens its first session
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.register")
	defer span.End()

	email := normalizeEmail(req.Email)
	span.SetAttributes(attribute.String("email", email))

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if exists {
		span.SetStatus(codes.Error, "user already exists")
		return nil, ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}

	now := time.Now()
	user := &domain.User{
		ID:            uuid.New().String(),
		Email:         email,
		PasswordHash:  string(hash),
		Name:          strings.TrimSpace(req.Name),
		Age:           req.Age,
		Address:       strings.TrimSpace(req.Address),
		MobileNumber:  strings.TrimSpace(req.MobileNumber),
		Role:          role,
		SessionTokens: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("creating user: %w", err)
	}

	resp, err := s.openSession(ctx, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// Login verifies credentials and opens a session
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.login")
	defer span.End()

	email := normalizeEmail(req.Email)
	span.SetAttributes(attribute.String("email", email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, ErrInvalidCredentials
	}

	// Unknown email and wrong password are indistinguishable to the caller
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, ErrInvalidCredentials
	}

	resp, err := s.openSession(ctx, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// openSession issues a pair and stores its refresh token, evicting the
// oldest session when the user is at capacity.
func (s *authService) openSession(ctx context.Context, user *domain.User) (*dto.AuthResponse, error) {
	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}

	if err := s.userRepo.AppendSessionToken(ctx, user.ID, pair.RefreshToken, s.config.SessionLimit); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	return &dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         ToUserResponse(user),
	}, nil
}

// Refresh rotates a refresh token: verify, locate owner, consume, reissue
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.refresh")
	defer span.End()

	claims, err := s.tokens.Decode(refreshToken, token.KindRefresh)
	if err != nil {
		span.SetStatus(codes.Error, "refresh token rejected")
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidRefreshToken
	}

	// The session list, not the signature, decides whether the token is
	// still live.
	user, err := s.userRepo.GetBySessionToken(ctx, refreshToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	if user == nil || user.ID != claims.UserID {
		span.SetStatus(codes.Error, "session not found")
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}

	rotated, err := s.userRepo.RotateSessionToken(ctx, user.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("rotating session: %w", err)
	}
	if !rotated {
		// A concurrent refresh consumed the token between lookup and
		// rotation; this caller loses.
		span.SetStatus(codes.Error, "token already consumed")
		return nil, ErrInvalidRefreshToken
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return &dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         ToUserResponse(user),
	}, nil
}

// Logout removes a single session; idempotent
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.logout")
	defer span.End()

	user, err := s.userRepo.GetBySessionToken(ctx, refreshToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("looking up session: %w", err)
	}
	if user == nil {
		span.SetStatus(codes.Ok, "already logged out")
		return nil
	}

	if err := s.userRepo.RemoveSessionToken(ctx, user.ID, refreshToken); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("removing session: %w", err)
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return nil
}

// LogoutAll removes every session of the user
func (s *authService) LogoutAll(ctx context.Context, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.logout_all")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if err := s.userRepo.ClearSessionTokens(ctx, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("clearing sessions: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Authenticate resolves an Authorization header value to a sanitized user.
// Failures are typed: ErrNoToken, ErrTokenExpired, ErrInvalidToken,
// ErrUserNotFound. Anything else is an internal fault.
func (s *authService) Authenticate(ctx context.Context, authHeader string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.authenticate")
	defer span.End()

	raw, ok := token.FromAuthHeader(authHeader)
	if !ok {
		span.SetStatus(codes.Error, "no token")
		return nil, ErrNoToken
	}

	claims, err := s.tokens.Decode(raw, token.KindAccess)
	if err != nil {
		span.SetStatus(codes.Error, "token rejected")
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		// Kind confusion and malformed tokens collapse here: the caller
		// only needs to know the credential is unusable.
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, ErrUserNotFound
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return user.Sanitized(), nil
}

// GetUser retrieves a user by ID
func (s *authService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.get_user")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", id))

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, ErrUserNotFound
	}

	span.SetStatus(codes.Ok, "")
	return user, nil
}

// UpdateProfile updates the caller's profile fields
func (s *authService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.update_profile")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, ErrUserNotFound
	}

	if req.Name != "" {
		user.Name = strings.TrimSpace(req.Name)
	}
	if req.Age != nil {
		user.Age = req.Age
	}
	if req.Address != "" {
		user.Address = strings.TrimSpace(req.Address)
	}
	if req.MobileNumber != "" {
		user.MobileNumber = strings.TrimSpace(req.MobileNumber)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("updating user: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return user, nil
}

// ListUsers returns a page of users for the admin surface
func (s *authService) ListUsers(ctx context.Context, cursor string, limit int, desc bool) ([]*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.list_users")
	defer span.End()

	users, err := s.userRepo.List(ctx, cursor, limit, desc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("listing users: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(users)))
	span.SetStatus(codes.Ok, "")
	return users, nil
}

// DeleteUser removes an account
func (s *authService) DeleteUser(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.delete_user")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", id))

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return ErrUserNotFound
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting user: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ToUserResponse converts a User to its sanitized wire form
func ToUserResponse(user *domain.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Age:          user.Age,
		Address:      user.Address,
		MobileNumber: user.MobileNumber,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    user.UpdatedAt.Format(time.RFC3339),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
