// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/joborders/internal/config"
	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/middleware"
)

const (
	testUserID    = "5c0e7d2a-3f1b-4d8e-9a6c-1b2c3d4e5f60"
	otherUserID   = "6d1f8e3b-4a2c-4e9f-8b7d-2c3d4e5f6a71"
	testSessionID = "7e2a9f4c-5b3d-4f0a-9c8e-3d4e5f6a7b82"
	testFamilyID  = "8f3b0a5d-6c4e-4a1b-8d9f-4e5f6a7b8c93"
)

var (
	selectByHash = regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash = $1")
	insertToken  = regexp.QuoteMeta("INSERT INTO refresh_tokens")
	rotateToken  = regexp.QuoteMeta("SET is_used = true")
	revokeFamily = regexp.QuoteMeta("WHERE family_id = $1 AND revoked_at IS NULL")
)

type stubUsers struct {
	users map[string]*UserInfo
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

func (s *stubUsers) Create(_ context.Context, email, hash, name string) (*UserInfo, error) {
	u := &UserInfo{ID: otherUserID, Email: email, Name: name, PasswordHash: hash}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubUsers) IncrementTokenVersion(_ context.Context, id string) error {
	s.users[id].TokenVersion++
	return nil
}

func (s *stubUsers) UpdatePassword(_ context.Context, id, hash string) error {
	s.users[id].PasswordHash = hash
	return nil
}

func newJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	m, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     priv,
		PublicKeyPath:      pub,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "joborders",
		Audience:           "joborders-api",
	})
	require.NoError(t, err)
	return m
}

type authFixture struct {
	svc   *Service
	jwt   *JWTManager
	users *stubUsers
	mock  sqlmock.Sqlmock
	redis *miniredis.Miniredis
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := &stubUsers{users: map[string]*UserInfo{
		testUserID: {ID: testUserID, Email: "engineer@example.com", Name: "Eng"},
	}}
	m := newJWTManager(t)

	return &authFixture{
		svc:   NewService(NewRepository(sqlx.NewDb(db, "sqlmock")), m, users, client),
		jwt:   m,
		users: users,
		mock:  mock,
		redis: mr,
	}
}

func sessionRows(s Session) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "token_hash", "family_id", "expires_at", "created_at",
		"is_used", "used_at", "revoked_at", "replaced_by_id", "user_agent", "ip_address",
	}).AddRow(
		s.ID, s.UserID, s.TokenHash, s.FamilyID, s.ExpiresAt, s.CreatedAt,
		s.Rotated, timeOrNil(s.RotatedAt), timeOrNil(s.RevokedAt), nil, s.UserAgent, s.IPAddress,
	)
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func activeSession() Session {
	now := time.Now()
	return Session{
		ID:        testSessionID,
		UserID:    testUserID,
		TokenHash: core.HashToken("refresh-token"),
		FamilyID:  testFamilyID,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now.Add(-time.Hour),
	}
}

func TestAccessTokenCarriesIdentityOnly(t *testing.T) {
	m := newJWTManager(t)

	issued, err := m.CreateAccessToken(AccessClaims{
		UserID:       testUserID,
		SessionID:    testFamilyID,
		TokenVersion: 3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, expiresAt, err := m.ParseAccessToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, &middleware.AccessTokenClaims{
		UserID:       testUserID,
		TokenID:      issued.ID,
		SessionID:    testFamilyID,
		TokenVersion: 3,
	}, claims)
	assert.WithinDuration(t, issued.ExpiresAt, expiresAt, time.Second)
}

func TestParseAccessToken(t *testing.T) {
	t.Run("foreign key", func(t *testing.T) {
		issued, err := newJWTManager(t).CreateAccessToken(AccessClaims{UserID: testUserID})
		require.NoError(t, err)

		_, _, err = newJWTManager(t).ParseAccessToken(issued.Token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := newJWTManager(t).ParseAccessToken("not.a.token")
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		m := newJWTManager(t)
		issued, err := m.CreateAccessToken(AccessClaims{UserID: testUserID})
		require.NoError(t, err)

		later := time.Now().Add(16 * time.Minute)
		m.now = func() time.Time { return later }

		_, _, err = m.ParseAccessToken(issued.Token)
		assert.ErrorIs(t, err, core.ErrTokenExpired)
	})

	t.Run("wrong audience", func(t *testing.T) {
		m := newJWTManager(t)
		issued, err := m.CreateAccessToken(AccessClaims{UserID: testUserID})
		require.NoError(t, err)

		m.config.Audience = "someone-else"
		_, _, err = m.ParseAccessToken(issued.Token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})
}

func TestKeyIDIsStableForAKeyFile(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	cfg := config.JWTConfig{PrivateKeyPath: priv, PublicKeyPath: pub}
	a, err := NewJWTManager(cfg)
	require.NoError(t, err)
	b, err := NewJWTManager(cfg)
	require.NoError(t, err)

	kidA, ok := a.publicKey.KeyID()
	require.True(t, ok)
	kidB, _ := b.publicKey.KeyID()
	assert.Len(t, kidA, keyIDLength)
	assert.Equal(t, kidA, kidB)
}

func TestVerifyAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		f := newAuthFixture(t)
		issued, err := f.jwt.CreateAccessToken(AccessClaims{UserID: testUserID})
		require.NoError(t, err)

		claims, err := f.svc.VerifyAccessToken(ctx, issued.Token)
		require.NoError(t, err)
		assert.Equal(t, testUserID, claims.UserID)
	})

	t.Run("blacklisted jti", func(t *testing.T) {
		f := newAuthFixture(t)
		issued, err := f.jwt.CreateAccessToken(AccessClaims{UserID: testUserID})
		require.NoError(t, err)

		require.NoError(t, f.svc.RevokeAccessToken(ctx, issued.ID, issued.ExpiresAt))
		assert.True(t, f.redis.Exists(blacklistPrefix+issued.ID))

		_, err = f.svc.VerifyAccessToken(ctx, issued.Token)
		assert.ErrorIs(t, err, core.ErrTokenRevoked)
	})

	t.Run("stale token version", func(t *testing.T) {
		f := newAuthFixture(t)
		issued, err := f.jwt.CreateAccessToken(AccessClaims{UserID: testUserID})
		require.NoError(t, err)

		f.users.users[testUserID].TokenVersion = 1

		_, err = f.svc.VerifyAccessToken(ctx, issued.Token)
		assert.ErrorIs(t, err, core.ErrTokenRevoked)
	})

	t.Run("deleted user", func(t *testing.T) {
		f := newAuthFixture(t)
		issued, err := f.jwt.CreateAccessToken(AccessClaims{UserID: testUserID})
		require.NoError(t, err)

		delete(f.users.users, testUserID)

		_, err = f.svc.VerifyAccessToken(ctx, issued.Token)
		assert.ErrorIs(t, err, core.ErrTokenRevoked)
	})
}

func TestRevokeAccessTokenSkipsExpired(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.RevokeAccessToken(context.Background(), "gone", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, f.redis.Exists(blacklistPrefix+"gone"))
}

func TestSessionState(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Minute)

	tests := []struct {
		name    string
		session Session
		want    SessionState
	}{
		{"active", Session{ExpiresAt: now.Add(time.Hour)}, SessionActive},
		{"expired", Session{ExpiresAt: now}, SessionExpired},
		{"revoked", Session{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, SessionRevoked},
		{"rotated wins over revoked", Session{Rotated: true, RevokedAt: &revoked}, SessionRotated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.State(now))
		})
	}
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates within the family", func(t *testing.T) {
		f := newAuthFixture(t)

		f.mock.ExpectQuery(selectByHash).
			WithArgs(core.HashToken("refresh-token")).
			WillReturnRows(sessionRows(activeSession()))
		f.mock.ExpectQuery(insertToken).
			WithArgs(sqlmock.AnyArg(), testUserID, sqlmock.AnyArg(), testFamilyID,
				sqlmock.AnyArg(), "test-agent", "10.0.0.1").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		f.mock.ExpectExec(rotateToken).
			WithArgs(testSessionID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		resp, err := f.svc.Refresh(ctx, "refresh-token", Client{"test-agent", "10.0.0.1"})
		require.NoError(t, err)
		assert.NotEqual(t, "refresh-token", resp.Tokens.RefreshToken)

		claims, _, err := f.jwt.ParseAccessToken(resp.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, testFamilyID, claims.SessionID)
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("replayed token revokes the family", func(t *testing.T) {
		f := newAuthFixture(t)
		spent := activeSession()
		spent.Rotated = true

		f.mock.ExpectQuery(selectByHash).WillReturnRows(sessionRows(spent))
		f.mock.ExpectExec(revokeFamily).
			WithArgs(testFamilyID).
			WillReturnResult(sqlmock.NewResult(0, 2))

		_, err := f.svc.Refresh(ctx, "refresh-token", Client{})
		assert.ErrorIs(t, err, ErrTokenReuse)
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("losing a concurrent rotation counts as reuse", func(t *testing.T) {
		f := newAuthFixture(t)

		f.mock.ExpectQuery(selectByHash).WillReturnRows(sessionRows(activeSession()))
		f.mock.ExpectQuery(insertToken).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		f.mock.ExpectExec(rotateToken).WillReturnResult(sqlmock.NewResult(0, 0))
		f.mock.ExpectExec(revokeFamily).
			WithArgs(testFamilyID).
			WillReturnResult(sqlmock.NewResult(0, 2))

		_, err := f.svc.Refresh(ctx, "refresh-token", Client{})
		assert.ErrorIs(t, err, ErrTokenReuse)
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("expired", func(t *testing.T) {
		f := newAuthFixture(t)
		old := activeSession()
		old.ExpiresAt = time.Now().Add(-time.Minute)

		f.mock.ExpectQuery(selectByHash).WillReturnRows(sessionRows(old))

		_, err := f.svc.Refresh(ctx, "refresh-token", Client{})
		assert.ErrorIs(t, err, core.ErrTokenExpired)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.mock.ExpectQuery(selectByHash).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := f.svc.Refresh(ctx, "nope", Client{})
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("without refresh token ends the calling session", func(t *testing.T) {
		f := newAuthFixture(t)
		issued, err := f.jwt.CreateAccessToken(AccessClaims{UserID: testUserID, SessionID: testFamilyID})
		require.NoError(t, err)
		claims, _, err := f.jwt.ParseAccessToken(issued.Token)
		require.NoError(t, err)

		f.mock.ExpectExec(revokeFamily).
			WithArgs(testFamilyID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, f.svc.Logout(ctx, claims, issued.Token, ""))
		assert.True(t, f.redis.Exists(blacklistPrefix+issued.ID))
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("refuses another user's refresh token", func(t *testing.T) {
		f := newAuthFixture(t)
		foreign := activeSession()
		foreign.UserID = otherUserID

		f.mock.ExpectQuery(selectByHash).WillReturnRows(sessionRows(foreign))

		claims := &middleware.AccessTokenClaims{UserID: testUserID, TokenID: "jti"}
		err := f.svc.Logout(ctx, claims, "", "refresh-token")
		assert.ErrorIs(t, err, core.ErrForbidden)
	})
}

func TestSessionsMarksCurrent(t *testing.T) {
	f := newAuthFixture(t)
	other := activeSession()
	other.ID = otherUserID
	other.FamilyID = otherUserID

	rows := sessionRows(activeSession())
	rows.AddRow(other.ID, other.UserID, other.TokenHash, other.FamilyID, other.ExpiresAt,
		other.CreatedAt, false, nil, nil, nil, "", "")
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens")).
		WithArgs(testUserID).
		WillReturnRows(rows)

	sessions, err := f.svc.Sessions(context.Background(), testUserID, testFamilyID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].Current)
	assert.False(t, sessions[1].Current)
}

func TestRevokeSessionRejectsMalformedID(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.RevokeSession(context.Background(), testUserID, "not-a-uuid")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPurgeExpiredTokens(t *testing.T) {
	f := newAuthFixture(t)
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	f.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens")).
		WithArgs(now.Add(-expiredSessionRetention)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := f.svc.PurgeExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, f.mock.ExpectationsWereMet())
}
