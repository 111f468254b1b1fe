// Package bootstrap seeds the records the service needs before it can
// accept traffic. It runs from main after the stores are up, never from
// constructors, so wiring stays free of side effects.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/domain"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/repository"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/config"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/logger"
)

// EnsureDefaultAdmin creates the configured admin account if no account
// with that email exists yet. Safe to run on every startup.
func EnsureDefaultAdmin(ctx context.Context, userRepo repository.UserRepository, cfg *config.AdminConfig, bcryptCost int) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" || cfg.Password == "" {
		return fmt.Errorf("admin email and password are required")
	}

	existing, err := userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("checking admin account: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "Admin"
	}

	now := time.Now()
	admin := &domain.User{
		ID:            uuid.New().String(),
		Email:         email,
		PasswordHash:  string(hash),
		Name:          name,
		Role:          domain.RoleAdmin,
		SessionTokens: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("creating admin account: %w", err)
	}

	logger.Get().Info("default admin account created", zap.String("email", email))
	return nil
}
