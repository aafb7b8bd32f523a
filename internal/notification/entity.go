// AngelaMos | 2026
// entity.go

package notification

import (
	"time"
)

const (
	KindWelcome  = "welcome"
	KindSystem   = "system"
	KindJobOrder = "job_order"
)

type Notification struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Title     string     `db:"title"`
	Body      string     `db:"body"`
	Type      *string    `db:"type"`
	ReadAt    *time.Time `db:"read_at"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
