// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/joborders/internal/core"
)

type User struct {
	ID           string                `db:"id"`
	Email        string                `db:"email"`
	PasswordHash string                `db:"password_hash"`
	Name         string                `db:"name"`
	Roles        core.JSONList[string] `db:"roles"`
	TokenVersion int                   `db:"token_version"`
	CreatedAt    time.Time             `db:"created_at"`
	UpdatedAt    time.Time             `db:"updated_at"`
	DeletedAt    *time.Time            `db:"deleted_at"`
}

// Brief is the user shape offered in assignment pickers.
type Brief struct {
	ID    string `db:"id"    json:"id"`
	Name  string `db:"name"  json:"name"`
	Email string `db:"email" json:"email"`
}
