// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/storyhaven/storyhaven-api/internal/core"
)

const generateRetries = 3

// Repository is the refresh-token store. Delete operations report
// whether a row was removed: per-document deletes are atomic, so the
// delete is the arbiter when two requests race to consume one token.
type Repository interface {
	Generate(
		ctx context.Context,
		userID, userAgent, ipAddress string,
		ttl time.Duration,
	) (*RefreshToken, error)
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) (bool, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	GetActiveSessionsForUser(
		ctx context.Context,
		userID string,
	) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Generate creates and persists a fresh active token. A collision on
// the unique token column is astronomically unlikely at 256 bits of
// entropy but is retried as a transient conflict anyway.
func (r *repository) Generate(
	ctx context.Context,
	userID, userAgent, ipAddress string,
	ttl time.Duration,
) (*RefreshToken, error) {
	var lastErr error

	for attempt := 0; attempt < generateRetries; attempt++ {
		opaque, err := core.GenerateRefreshToken()
		if err != nil {
			return nil, fmt.Errorf("generate refresh token: %w", err)
		}

		token := &RefreshToken{
			ID:        uuid.New().String(),
			UserID:    userID,
			Token:     opaque,
			UserAgent: userAgent,
			IPAddress: ipAddress,
			ExpiresAt: time.Now().Add(ttl),
			Status:    StatusActive,
		}

		if err := r.create(ctx, token); err != nil {
			if errors.Is(err, core.ErrDuplicateKey) {
				lastErr = err
				continue
			}
			return nil, err
		}

		return token, nil
	}

	return nil, fmt.Errorf("generate refresh token: %w", lastErr)
}

func (r *repository) create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (
			id, user_id, token, user_agent, ip_address, expires_at, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID,
		token.UserID,
		token.Token,
		token.UserAgent,
		token.IPAddress,
		token.ExpiresAt,
		token.Status,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create refresh token: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *repository) FindByToken(
	ctx context.Context,
	token string,
) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, token, user_agent, ip_address,
		       expires_at, status, created_at
		FROM refresh_tokens
		WHERE token = $1`

	var record RefreshToken
	err := r.db.GetContext(ctx, &record, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &record, nil
}

func (r *repository) FindByID(
	ctx context.Context,
	id string,
) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, token, user_agent, ip_address,
		       expires_at, status, created_at
		FROM refresh_tokens
		WHERE id = $1`

	var record RefreshToken
	err := r.db.GetContext(ctx, &record, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &record, nil
}

// DeleteByToken removes the record and reports whether it existed.
// When two requests race to consume the same token, at most one
// observes true here.
func (r *repository) DeleteByToken(
	ctx context.Context,
	token string,
) (bool, error) {
	query := `DELETE FROM refresh_tokens WHERE token = $1`

	result, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM refresh_tokens WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete refresh token: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) DeleteAllForUser(
	ctx context.Context,
	userID string,
) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete user tokens: %w", err)
	}

	return nil
}

// RevokeAllForUser flips status on every active record without
// deleting, preserving the audit fields for security review.
func (r *repository) RevokeAllForUser(
	ctx context.Context,
	userID string,
) error {
	query := `
		UPDATE refresh_tokens
		SET status = $2
		WHERE user_id = $1 AND status = $3`

	_, err := r.db.ExecContext(ctx, query, userID, StatusRevoked, StatusActive)
	if err != nil {
		return fmt.Errorf("revoke all user tokens: %w", err)
	}

	return nil
}

func (r *repository) GetActiveSessionsForUser(
	ctx context.Context,
	userID string,
) ([]RefreshToken, error) {
	query := `
		SELECT id, user_id, token, user_agent, ip_address,
		       expires_at, status, created_at
		FROM refresh_tokens
		WHERE user_id = $1
			AND status = $2
			AND expires_at > NOW()
		ORDER BY created_at DESC`

	var tokens []RefreshToken
	err := r.db.SelectContext(ctx, &tokens, query, userID, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("get active sessions: %w", err)
	}

	return tokens, nil
}

func (r *repository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	return rows, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
