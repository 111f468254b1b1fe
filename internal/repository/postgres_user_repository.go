package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/domain"
)

const userColumns = `id, email, password_hash, name, age, address, mobile_number, role, session_tokens, created_at, updated_at`

// PostgresUserRepository implements UserRepository using PostgreSQL.
// The session list lives in a session_tokens TEXT[] column on the user
// row, so every session mutation is one UPDATE statement and therefore
// atomic per user.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Age,
		&user.Address,
		&user.MobileNumber,
		&user.Role,
		&user.SessionTokens,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Create inserts a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Age,
		user.Address,
		user.MobileNumber,
		user.Role,
		user.SessionTokens,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetBySessionToken finds the user holding the given refresh token
func (r *PostgresUserRepository) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE $1 = ANY(session_tokens)`
	return scanUser(r.pool.QueryRow(ctx, query, token))
}

// Update persists profile and role fields. Session tokens are updated only
// through the dedicated session operations below.
func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET email = $2, password_hash = $3, name = $4, age = $5, address = $6,
		    mobile_number = $7, role = $8, updated_at = $9
		WHERE id = $1
	`
	user.UpdatedAt = time.Now()
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Age,
		user.Address,
		user.MobileNumber,
		user.Role,
		user.UpdatedAt,
	)
	return err
}

// Delete deletes a user
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// ExistsByEmail checks if a user exists with the given email
func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// List returns a keyset page of users ordered by id
func (r *PostgresUserRepository) List(ctx context.Context, cursor string, limit int, desc bool) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []interface{}{}

	if cursor != "" {
		if desc {
			query += ` WHERE id < $1`
		} else {
			query += ` WHERE id > $1`
		}
		args = append(args, cursor)
	}
	if desc {
		query += ` ORDER BY id DESC`
	} else {
		query += ` ORDER BY id ASC`
	}
	if cursor != "" {
		query += ` LIMIT $2`
	} else {
		query += ` LIMIT $1`
	}
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.Name,
			&user.Age,
			&user.Address,
			&user.MobileNumber,
			&user.Role,
			&user.SessionTokens,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// AppendSessionToken appends a refresh token, evicting the oldest
// entries when the list is at or above limit. The slice keeps the newest
// limit-1 entries, so a list left oversized by a lowered limit converges
// to the cap in one append rather than shrinking by one at a time.
// Single statement, so the capacity check and the append cannot
// interleave with another writer.
func (r *PostgresUserRepository) AppendSessionToken(ctx context.Context, userID, token string, limit int) error {
	query := `
		UPDATE users
		SET session_tokens = (
			CASE WHEN cardinality(session_tokens) >= $3
			     THEN session_tokens[cardinality(session_tokens) - $3 + 2:]
			     ELSE session_tokens
			END
		) || $2::text,
		    updated_at = now()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID, token, limit)
	return err
}

// RotateSessionToken consumes oldToken and installs newToken in one
// conditional update. Zero rows affected means oldToken was no longer in
// the list; the caller must treat the refresh as invalid.
func (r *PostgresUserRepository) RotateSessionToken(ctx context.Context, userID, oldToken, newToken string) (bool, error) {
	query := `
		UPDATE users
		SET session_tokens = array_append(array_remove(session_tokens, $2), $3),
		    updated_at = now()
		WHERE id = $1 AND $2 = ANY(session_tokens)
	`
	tag, err := r.pool.Exec(ctx, query, userID, oldToken, newToken)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveSessionToken removes a refresh token; removing an absent token is
// a no-op, not an error.
func (r *PostgresUserRepository) RemoveSessionToken(ctx context.Context, userID, token string) error {
	query := `
		UPDATE users
		SET session_tokens = array_remove(session_tokens, $2), updated_at = now()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID, token)
	return err
}

// ClearSessionTokens empties the session list
func (r *PostgresUserRepository) ClearSessionTokens(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET session_tokens = '{}', updated_at = now()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}
