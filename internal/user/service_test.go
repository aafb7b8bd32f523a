// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/core"
)

const (
	adminID    = "0b6a3f58-8c5a-4a3b-9d0c-6a9c2b1f0e01"
	engineerID = "0b6a3f58-8c5a-4a3b-9d0c-6a9c2b1f0e02"
	otherAdmin = "0b6a3f58-8c5a-4a3b-9d0c-6a9c2b1f0e03"
)

type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if dv, err := driver.DefaultParameterConverter.ConvertValue(v); err == nil {
		return dv, nil
	}
	return v, nil
}

type stubRoles struct {
	principals  map[string]*authz.Principal
	assigned    map[string][]string
	forgotten   []string
	known       map[string]bool
	assignErr   error
	validations int
}

func newStubRoles() *stubRoles {
	return &stubRoles{
		principals: map[string]*authz.Principal{},
		assigned:   map[string][]string{},
		known:      map[string]bool{"admin": true, "engineer": true},
	}
}

func (s *stubRoles) ValidateRoles(_ context.Context, roles []string) error {
	s.validations++
	for _, r := range roles {
		if !s.known[r] {
			return core.ErrInvalidInput
		}
	}
	return nil
}

func (s *stubRoles) AssignRoles(_ context.Context, userID string, roles []string) error {
	if s.assignErr != nil {
		return s.assignErr
	}
	s.assigned[userID] = roles
	return nil
}

func (s *stubRoles) RoleNames(context.Context) ([]string, error) {
	return []string{"admin", "engineer"}, nil
}

func (s *stubRoles) Load(_ context.Context, userID string) (*authz.Principal, error) {
	if p, ok := s.principals[userID]; ok {
		return p, nil
	}
	return nil, core.ErrNotFound
}

func (s *stubRoles) Forget(_ context.Context, userIDs ...string) error {
	s.forgotten = append(s.forgotten, userIDs...)
	return nil
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *stubRoles) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	roles := newStubRoles()
	repo := NewRepository(sqlx.NewDb(db, "sqlmock"))
	return NewService(repo, roles), mock, roles
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "name", "token_version",
		"created_at", "updated_at", "deleted_at", "roles",
	})
}

func TestCreateUserSyncsRoles(t *testing.T) {
	svc, mock, roles := newTestService(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (id, email, password_hash, name)")).
		WithArgs(sqlmock.AnyArg(), "new@example.com", sqlmock.AnyArg(), "New Person").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at", "token_version"}).
			AddRow(now, now, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
		WillReturnRows(userRows().AddRow(
			engineerID, "new@example.com", "hash", "New Person", 0,
			now, now, nil, []byte(`["engineer"]`),
		))

	user, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Name:     " New Person ",
		Email:    "New@Example.com",
		Password: "password",
		Roles:    []string{"engineer"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"engineer"}, []string(user.Roles))
	assert.Len(t, roles.assigned, 1)
	for _, assigned := range roles.assigned {
		assert.Equal(t, []string{"engineer"}, assigned)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserRejectsUnknownRoleBeforeInsert(t *testing.T) {
	svc, mock, roles := newTestService(t)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Name:     "New Person",
		Email:    "new@example.com",
		Password: "password",
		Roles:    []string{"engineer", "wizard"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, 1, roles.validations)
	assert.Empty(t, roles.assigned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserRejectsUnknownRoleBeforeUpdate(t *testing.T) {
	svc, mock, roles := newTestService(t)

	_, err := svc.UpdateUser(context.Background(), engineerID, AdminUpdateUserRequest{
		Name:  "Renamed",
		Email: "renamed@example.com",
		Roles: []string{"wizard"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Empty(t, roles.assigned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_unique"})

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Name:     "Dup",
		Email:    "test@example.com",
		Password: "password",
	})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUser(t *testing.T) {
	admin := &authz.Principal{ID: adminID, Roles: []string{"admin"}}

	t.Run("admin cannot delete another admin", func(t *testing.T) {
		svc, mock, roles := newTestService(t)
		roles.principals[otherAdmin] = &authz.Principal{ID: otherAdmin, Roles: []string{"admin"}}

		err := svc.DeleteUser(context.Background(), admin, otherAdmin)
		assert.ErrorIs(t, err, core.ErrForbidden)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("soft deletes and forgets cached principal", func(t *testing.T) {
		svc, mock, roles := newTestService(t)
		roles.principals[engineerID] = &authz.Principal{ID: engineerID, Roles: []string{"engineer"}}

		mock.ExpectExec(regexp.QuoteMeta("SET deleted_at = NOW()")).
			WithArgs(engineerID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.DeleteUser(context.Background(), admin, engineerID))
		assert.Equal(t, []string{engineerID}, roles.forgotten)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing target", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		err := svc.DeleteUser(context.Background(), admin, engineerID)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("no requester", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		err := svc.DeleteUser(context.Background(), nil, engineerID)
		assert.ErrorIs(t, err, core.ErrUnauthorized)
	})
}

func TestAllExist(t *testing.T) {
	svc, mock, _ := newTestService(t)
	ctx := context.Background()

	ok, err := svc.AllExist(ctx, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err = svc.AllExist(ctx, []string{engineerID, engineerID})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.AllExist(ctx, []string{engineerID, "not-an-id"})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersFiltersByRole(t *testing.T) {
	svc, mock, _ := newTestService(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users u WHERE")).
		WithArgs("%eng%", "engineer").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("r.name = $2")).
		WithArgs("%eng%", "engineer", 10, 0).
		WillReturnRows(userRows().AddRow(
			engineerID, "engineer@example.com", "hash", "Eng", 0,
			now, now, nil, []byte(`["engineer"]`),
		))

	users, total, err := svc.ListUsers(context.Background(), ListUsersParams{
		Search: "eng",
		Role:   "engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "engineer@example.com", users[0].Email)
	require.NoError(t, mock.ExpectationsWereMet())
}
