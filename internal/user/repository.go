// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/joborders/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountExisting(ctx context.Context, ids []string) (int, error)
	ListBrief(ctx context.Context) ([]Brief, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// userColumns selects a user with its role names folded into a JSON array.
const userColumns = `
	u.id, u.email, u.password_hash, u.name, u.token_version,
	u.created_at, u.updated_at, u.deleted_at,
	COALESCE((
		SELECT json_agg(r.name ORDER BY r.name)
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = u.id
	), '[]') AS roles`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at, token_version`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
	)
	if err != nil {
		if core.IsUniqueViolation(err, "") {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	if !core.IsUUID(id) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}

	return r.one(ctx, "get user", "u.id = $1", id)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return r.one(ctx, "get user by email", "u.email = $1", email)
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Name,
		user.Email,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsUniqueViolation(err, "") {
			return fmt.Errorf("update user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execOne(ctx, "increment token version", query, id)
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	if !core.IsUUID(id) {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}

	query := `
		UPDATE users
		SET deleted_at = NOW(), updated_at = NOW(),
		    token_version = token_version + 1
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execOne(ctx, "delete user", query, id)
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize(defaultPageSize)

	var f core.Filter
	f.Where("u.deleted_at IS NULL")
	if params.Search != "" {
		pattern := f.Arg(core.Contains(params.Search))
		f.Where("(u.name ILIKE " + pattern + " OR u.email ILIKE " + pattern + ")")
	}
	if params.Role != "" {
		f.Where(`EXISTS (
			SELECT 1 FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = u.id AND r.name = ` + f.Arg(params.Role) + `)`)
	}
	where := f.Clause()

	var total int
	countQuery := "SELECT COUNT(*) FROM users u" + where
	if err := r.db.GetContext(ctx, &total, countQuery, f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users u` + where +
		` ORDER BY u.created_at DESC` + f.Paginate(params.Pagination)

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

// CountExisting reports how many of ids belong to live users.
func (r *repository) CountExisting(
	ctx context.Context,
	ids []string,
) (int, error) {
	for _, id := range ids {
		if !core.IsUUID(id) {
			return 0, nil
		}
	}

	query := `SELECT COUNT(*) FROM users WHERE id = ANY($1) AND deleted_at IS NULL`

	var n int
	if err := r.db.GetContext(ctx, &n, query, ids); err != nil {
		return 0, fmt.Errorf("count existing users: %w", err)
	}

	return n, nil
}

func (r *repository) ListBrief(ctx context.Context) ([]Brief, error) {
	query := `
		SELECT id, name, email
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY name`

	var users []Brief
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list user briefs: %w", err)
	}

	return users, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// one loads a single live user matching cond.
func (r *repository) one(
	ctx context.Context,
	op, cond string,
	arg any,
) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		WHERE ` + cond + ` AND u.deleted_at IS NULL`

	var user User
	err := r.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
