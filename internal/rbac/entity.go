// AngelaMos | 2026
// entity.go

package rbac

import (
	"time"

	"github.com/carterperez-dev/joborders/internal/core"
)

type Role struct {
	ID          string                `db:"id"`
	Name        string                `db:"name"`
	Permissions core.JSONList[string] `db:"permissions"`
	CreatedAt   time.Time             `db:"created_at"`
	UpdatedAt   time.Time             `db:"updated_at"`
}

type Permission struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type principalRow struct {
	ID          string                `db:"id"`
	Name        string                `db:"name"`
	Email       string                `db:"email"`
	Roles       core.JSONList[string] `db:"roles"`
	Permissions core.JSONList[string] `db:"permissions"`
}
