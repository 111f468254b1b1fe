package repository

import (
	"context"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/domain"
)

// UserRepository is the persistence boundary for user records and their
// embedded session-token lists. Session mutations must each be a single
// atomic read-modify-write: two concurrent refreshes racing on the same
// token must not both observe it as present.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetBySessionToken finds the user whose session list holds the given
	// refresh token. Refresh requests arrive with only the token.
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// List returns up to limit users ordered by id, starting after cursor
	// (exclusive). Descending order when desc is true.
	List(ctx context.Context, cursor string, limit int, desc bool) ([]*domain.User, error)

	// AppendSessionToken appends token to the user's session list. When
	// the list is at or above limit, oldest entries are evicted first so
	// the result never exceeds limit.
	AppendSessionToken(ctx context.Context, userID, token string, limit int) error
	// RotateSessionToken atomically replaces oldToken with newToken.
	// Returns false when oldToken was not present, which is how a
	// concurrent double-refresh loses the race.
	RotateSessionToken(ctx context.Context, userID, oldToken, newToken string) (bool, error)
	// RemoveSessionToken removes token if present; absent is a no-op.
	RemoveSessionToken(ctx context.Context, userID, token string) error
	// ClearSessionTokens empties the list (logout everywhere).
	ClearSessionTokens(ctx context.Context, userID string) error
}
