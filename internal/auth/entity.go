// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// Session is one login on one device, persisted as its current refresh
// token. Each refresh rotates the row into a successor of the same family.
type Session struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	TokenHash   string     `db:"token_hash"`
	FamilyID    string     `db:"family_id"`
	ExpiresAt   time.Time  `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
	Rotated     bool       `db:"is_used"`
	RotatedAt   *time.Time `db:"used_at"`
	RevokedAt   *time.Time `db:"revoked_at"`
	SuccessorID *string    `db:"replaced_by_id"`
	UserAgent   string     `db:"user_agent"`
	IPAddress   string     `db:"ip_address"`
}

type SessionState int

const (
	SessionActive SessionState = iota
	SessionRotated
	SessionRevoked
	SessionExpired
)

// State classifies the session at now. A rotated token is reported before
// revocation so that replaying it is always treated as reuse.
func (s *Session) State(now time.Time) SessionState {
	switch {
	case s.Rotated:
		return SessionRotated
	case s.RevokedAt != nil:
		return SessionRevoked
	case !now.Before(s.ExpiresAt):
		return SessionExpired
	default:
		return SessionActive
	}
}

func (s *Session) info(currentFamily string) SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		UserAgent: s.UserAgent,
		IPAddress: s.IPAddress,
		Current:   currentFamily != "" && s.FamilyID == currentFamily,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
