// AngelaMos | 2026
// repository.go

package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/core"
)

type Repository interface {
	LoadPrincipal(ctx context.Context, userID string) (*authz.Principal, error)

	ListRoles(ctx context.Context, params ListParams) ([]Role, int, error)
	GetRole(ctx context.Context, id string) (*Role, error)
	CreateRole(ctx context.Context, role *Role) error
	UpdateRole(ctx context.Context, role *Role) error
	DeleteRole(ctx context.Context, id string) error
	EnsureRole(ctx context.Context, name string, perms []string) error
	AllRoleNames(ctx context.Context) ([]string, error)
	CountRoles(ctx context.Context) (int, error)
	CountRolesNamed(ctx context.Context, names []string) (int, error)

	ListPermissions(
		ctx context.Context,
		params ListParams,
	) ([]Permission, int, error)
	GetPermission(ctx context.Context, id string) (*Permission, error)
	CreatePermission(ctx context.Context, perm *Permission) error
	UpdatePermission(ctx context.Context, perm *Permission) error
	DeletePermission(ctx context.Context, id string) error
	EnsurePermission(ctx context.Context, name string) error
	AllPermissionNames(ctx context.Context) ([]string, error)
	CountPermissions(ctx context.Context) (int, error)
	CountPermissionsNamed(ctx context.Context, names []string) (int, error)

	SyncUserRoles(ctx context.Context, userID string, roles []string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) LoadPrincipal(
	ctx context.Context,
	userID string,
) (*authz.Principal, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("load principal: %w", core.ErrNotFound)
	}

	query := `
		SELECT u.id, u.name, u.email,
		       COALESCE(json_agg(DISTINCT r.name)
		                FILTER (WHERE r.name IS NOT NULL), '[]') AS roles,
		       COALESCE(json_agg(DISTINCT p.name)
		                FILTER (WHERE p.name IS NOT NULL), '[]') AS permissions
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE u.id = $1 AND u.deleted_at IS NULL
		GROUP BY u.id`

	var row principalRow
	err := r.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load principal: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load principal: %w", err)
	}

	return &authz.Principal{
		ID:          row.ID,
		Name:        row.Name,
		Email:       row.Email,
		Roles:       []string(row.Roles),
		Permissions: []string(row.Permissions),
	}, nil
}

const roleSelect = `
	SELECT ro.id, ro.name, ro.created_at, ro.updated_at,
	       COALESCE((
	           SELECT json_agg(p.name ORDER BY p.name)
	           FROM role_permissions rp
	           JOIN permissions p ON p.id = rp.permission_id
	           WHERE rp.role_id = ro.id
	       ), '[]') AS permissions
	FROM roles ro`

func (r *repository) ListRoles(
	ctx context.Context,
	params ListParams,
) ([]Role, int, error) {
	params.Normalize(defaultPageSize)

	f := searchFilter("ro.name", params.Search)
	where := f.Clause()

	var total int
	countQuery := "SELECT COUNT(*) FROM roles ro" + where
	if err := r.db.GetContext(ctx, &total, countQuery, f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count roles: %w", err)
	}

	query := roleSelect + where + `
		ORDER BY ro.created_at DESC` + f.Paginate(params.Pagination)

	var roles []Role
	if err := r.db.SelectContext(ctx, &roles, query, f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}

	return roles, total, nil
}

func (r *repository) GetRole(ctx context.Context, id string) (*Role, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
	}

	var role Role
	err := r.db.GetContext(ctx, &role, roleSelect+" WHERE ro.id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}

	return &role, nil
}

func (r *repository) CreateRole(ctx context.Context, role *Role) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO roles (id, name)
			VALUES ($1, $2)
			RETURNING created_at, updated_at`

		err := tx.GetContext(ctx, role, query, role.ID, role.Name)
		if err != nil {
			if core.IsUniqueViolation(err, "") {
				return fmt.Errorf("create role: %w", core.ErrDuplicateKey)
			}
			return fmt.Errorf("create role: %w", err)
		}

		return syncRolePermissions(ctx, tx, role.ID, role.Permissions)
	})
}

func (r *repository) UpdateRole(ctx context.Context, role *Role) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE roles
			SET name = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`

		err := tx.GetContext(ctx, &role.UpdatedAt, query, role.ID, role.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update role: %w", core.ErrNotFound)
		}
		if err != nil {
			if core.IsUniqueViolation(err, "") {
				return fmt.Errorf("update role: %w", core.ErrDuplicateKey)
			}
			return fmt.Errorf("update role: %w", err)
		}

		return syncRolePermissions(ctx, tx, role.ID, role.Permissions)
	})
}

func syncRolePermissions(
	ctx context.Context,
	tx *sqlx.Tx,
	roleID string,
	names []string,
) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("clear role permissions: %w", err)
	}

	if len(names) == 0 {
		return nil
	}

	query := `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, id FROM permissions WHERE name = ANY($2)`

	if _, err := tx.ExecContext(ctx, query, roleID, names); err != nil {
		return fmt.Errorf("assign role permissions: %w", err)
	}

	return nil
}

func (r *repository) DeleteRole(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("delete role: %w", core.ErrNotFound)
	}
	return execAffecting(ctx, r.db, "delete role",
		`DELETE FROM roles WHERE id = $1`, id)
}

// EnsureRole creates the role if missing and grants perms to it without
// revoking anything it already holds.
func (r *repository) EnsureRole(
	ctx context.Context,
	name string,
	perms []string,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO roles (id, name)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING`

		if _, err := tx.ExecContext(ctx, insert, uuid.New().String(), name); err != nil {
			return fmt.Errorf("ensure role %s: %w", name, err)
		}

		if len(perms) == 0 {
			return nil
		}

		grant := `
			INSERT INTO role_permissions (role_id, permission_id)
			SELECT ro.id, p.id
			FROM roles ro, permissions p
			WHERE ro.name = $1 AND p.name = ANY($2)
			ON CONFLICT DO NOTHING`

		if _, err := tx.ExecContext(ctx, grant, name, perms); err != nil {
			return fmt.Errorf("grant permissions to %s: %w", name, err)
		}

		return nil
	})
}

func (r *repository) AllRoleNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.SelectContext(ctx, &names,
		`SELECT name FROM roles ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list role names: %w", err)
	}
	return names, nil
}

func (r *repository) CountRoles(ctx context.Context) (int, error) {
	return count(ctx, r.db, "count roles", `SELECT COUNT(*) FROM roles`)
}

func (r *repository) CountRolesNamed(
	ctx context.Context,
	names []string,
) (int, error) {
	return count(ctx, r.db, "count roles",
		`SELECT COUNT(*) FROM roles WHERE name = ANY($1)`, names)
}

func (r *repository) ListPermissions(
	ctx context.Context,
	params ListParams,
) ([]Permission, int, error) {
	params.Normalize(defaultPageSize)

	f := searchFilter("name", params.Search)
	where := f.Clause()

	var total int
	countQuery := "SELECT COUNT(*) FROM permissions" + where
	if err := r.db.GetContext(ctx, &total, countQuery, f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count permissions: %w", err)
	}

	query := `
		SELECT id, name, created_at, updated_at
		FROM permissions` + where + `
		ORDER BY created_at DESC` + f.Paginate(params.Pagination)

	var perms []Permission
	if err := r.db.SelectContext(ctx, &perms, query, f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("list permissions: %w", err)
	}

	return perms, total, nil
}

func (r *repository) GetPermission(
	ctx context.Context,
	id string,
) (*Permission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get permission: %w", core.ErrNotFound)
	}

	query := `
		SELECT id, name, created_at, updated_at
		FROM permissions
		WHERE id = $1`

	var perm Permission
	err := r.db.GetContext(ctx, &perm, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get permission: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get permission: %w", err)
	}

	return &perm, nil
}

func (r *repository) CreatePermission(
	ctx context.Context,
	perm *Permission,
) error {
	query := `
		INSERT INTO permissions (id, name)
		VALUES ($1, $2)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, perm, query, perm.ID, perm.Name)
	if err != nil {
		if core.IsUniqueViolation(err, "") {
			return fmt.Errorf("create permission: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create permission: %w", err)
	}

	return nil
}

func (r *repository) UpdatePermission(
	ctx context.Context,
	perm *Permission,
) error {
	query := `
		UPDATE permissions
		SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &perm.UpdatedAt, query, perm.ID, perm.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update permission: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsUniqueViolation(err, "") {
			return fmt.Errorf("update permission: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update permission: %w", err)
	}

	return nil
}

func (r *repository) DeletePermission(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("delete permission: %w", core.ErrNotFound)
	}
	return execAffecting(ctx, r.db, "delete permission",
		`DELETE FROM permissions WHERE id = $1`, id)
}

func (r *repository) EnsurePermission(ctx context.Context, name string) error {
	query := `
		INSERT INTO permissions (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, uuid.New().String(), name); err != nil {
		return fmt.Errorf("ensure permission %s: %w", name, err)
	}
	return nil
}

func (r *repository) AllPermissionNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.SelectContext(ctx, &names,
		`SELECT name FROM permissions ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list permission names: %w", err)
	}
	return names, nil
}

func (r *repository) CountPermissions(ctx context.Context) (int, error) {
	return count(ctx, r.db, "count permissions",
		`SELECT COUNT(*) FROM permissions`)
}

func (r *repository) CountPermissionsNamed(
	ctx context.Context,
	names []string,
) (int, error) {
	return count(ctx, r.db, "count permissions",
		`SELECT COUNT(*) FROM permissions WHERE name = ANY($1)`, names)
}

func (r *repository) SyncUserRoles(
	ctx context.Context,
	userID string,
	roles []string,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear user roles: %w", err)
		}

		if len(roles) == 0 {
			return nil
		}

		query := `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = ANY($2)`

		if _, err := tx.ExecContext(ctx, query, userID, roles); err != nil {
			return fmt.Errorf("assign user roles: %w", err)
		}

		return nil
	})
}

func searchFilter(column, search string) *core.Filter {
	var f core.Filter
	if search != "" {
		f.Where(column + " ILIKE " + f.Arg(core.Contains(search)))
	}
	return &f
}

func count(
	ctx context.Context,
	db core.DBTX,
	op, query string,
	args ...any,
) (int, error) {
	var n int
	if err := db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func execAffecting(
	ctx context.Context,
	db core.DBTX,
	op, query string,
	args ...any,
) error {
	result, err := db.ExecContext(ctx, query, args...)
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
