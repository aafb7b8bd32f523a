// AngelaMos | 2026
// repository.go

package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/joborders/internal/core"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	ListByUser(ctx context.Context, userID string) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const notificationColumns = `id, user_id, title, body, type, read_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, body, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, n, query,
		n.ID,
		n.UserID,
		n.Title,
		n.Body,
		n.Type,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Notification, error) {
	if !core.IsUUID(id) {
		return nil, fmt.Errorf("get notification: %w", core.ErrNotFound)
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	var n Notification
	err := r.db.GetContext(ctx, &n, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get notification: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}

	return &n, nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID string,
) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	var items []Notification
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return items, nil
}

// MarkRead keeps the first read timestamp when called again.
func (r *repository) MarkRead(ctx context.Context, id string) error {
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, NOW()), updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "mark notification read", query, id)
}

func (r *repository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	query := `
		UPDATE notifications
		SET read_at = NOW(), updated_at = NOW()
		WHERE user_id = $1 AND read_at IS NULL`

	return r.execCount(ctx, "mark all notifications read", query, userID)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "delete notification",
		`DELETE FROM notifications WHERE id = $1`, id)
}

func (r *repository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	return r.execCount(ctx, "delete notifications",
		`DELETE FROM notifications WHERE user_id = $1`, userID)
}

func (r *repository) execOne(ctx context.Context, op, query string, args ...any) error {
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

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return rows, nil
}
