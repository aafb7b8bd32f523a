// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/joborders/internal/core"
)

// Repository persists sessions in the refresh_tokens table.
type Repository interface {
	Insert(ctx context.Context, s *Session) error
	ByHash(ctx context.Context, tokenHash string) (*Session, error)
	ByID(ctx context.Context, id string) (*Session, error)
	Rotate(ctx context.Context, id, successorID string) error
	RevokeFamily(ctx context.Context, familyID string) (int64, error)
	RevokeUser(ctx context.Context, userID string) (int64, error)
	ListActive(ctx context.Context, userID string) ([]Session, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}

const sessionColumns = `
	id, user_id, token_hash, family_id, expires_at, created_at,
	is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, family_id, expires_at,
			user_agent, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &s.CreatedAt, query,
		s.ID,
		s.UserID,
		s.TokenHash,
		s.FamilyID,
		s.ExpiresAt,
		s.UserAgent,
		s.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (r *repository) ByHash(ctx context.Context, tokenHash string) (*Session, error) {
	return r.one(ctx, "session by hash",
		`SELECT `+sessionColumns+` FROM refresh_tokens WHERE token_hash = $1`,
		tokenHash,
	)
}

func (r *repository) ByID(ctx context.Context, id string) (*Session, error) {
	if !core.IsUUID(id) {
		return nil, fmt.Errorf("session by id: %w", core.ErrNotFound)
	}

	return r.one(ctx, "session by id",
		`SELECT `+sessionColumns+` FROM refresh_tokens WHERE id = $1`,
		id,
	)
}

// Rotate marks the session as replaced by successorID. It only succeeds
// once per session, so a concurrent second refresh sees ErrNotFound.
func (r *repository) Rotate(ctx context.Context, id, successorID string) error {
	query := `
		UPDATE refresh_tokens
		SET is_used = true, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND is_used = false AND revoked_at IS NULL`

	return r.execOne(ctx, "rotate session", query, id, successorID)
}

func (r *repository) RevokeFamily(ctx context.Context, familyID string) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE family_id = $1 AND revoked_at IS NULL`

	return r.execCount(ctx, "revoke session family", query, familyID)
}

func (r *repository) RevokeUser(ctx context.Context, userID string) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL`

	return r.execCount(ctx, "revoke user sessions", query, userID)
}

func (r *repository) ListActive(ctx context.Context, userID string) ([]Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM refresh_tokens
		WHERE user_id = $1
			AND revoked_at IS NULL
			AND is_used = false
			AND expires_at > NOW()
		ORDER BY created_at DESC`

	sessions := []Session{}
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}

	return sessions, nil
}

func (r *repository) Purge(ctx context.Context, before time.Time) (int64, error) {
	return r.execCount(ctx, "purge sessions",
		`DELETE FROM refresh_tokens WHERE expires_at < $1`,
		before,
	)
}

func (r *repository) one(
	ctx context.Context,
	op, query string,
	args ...any,
) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &s, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	n, err := r.execCount(ctx, op, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func (r *repository) execCount(
	ctx context.Context,
	op, query string,
	args ...any,
) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
