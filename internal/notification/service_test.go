// AngelaMos | 2026
// service_test.go

package notification

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/joborders/internal/core"
)

const (
	ownerID  = "11111111-1111-4111-8111-111111111111"
	otherID  = "22222222-2222-4222-8222-222222222222"
	noticeID = "33333333-3333-4333-8333-333333333333"
)

var (
	fixedNow = time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

	selectByID = regexp.QuoteMeta("FROM notifications WHERE id = $1")
	columns    = []string{"id", "user_id", "title", "body", "type", "read_at", "created_at", "updated_at"}
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := NewService(NewRepository(sqlx.NewDb(db, "sqlmock")))
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func TestNotify(t *testing.T) {
	insert := regexp.QuoteMeta("INSERT INTO notifications")

	t.Run("stores kind", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery(insert).
			WithArgs(sqlmock.AnyArg(), ownerID, "Job Order Assigned", "body", KindJobOrder).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(fixedNow, fixedNow))

		err := svc.Notify(context.Background(), ownerID, "Job Order Assigned", "body", KindJobOrder)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty kind is null", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery(insert).
			WithArgs(sqlmock.AnyArg(), ownerID, "Hello", "", nil).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(fixedNow, fixedNow))

		require.NoError(t, svc.Notify(context.Background(), ownerID, "Hello", "", ""))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkAsReadChecksOwner(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery(selectByID).
			WithArgs(noticeID).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(noticeID, ownerID, "t", "b", nil, nil, fixedNow, fixedNow))
		mock.ExpectExec(regexp.QuoteMeta("SET read_at = COALESCE(read_at, NOW())")).
			WithArgs(noticeID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.MarkAsRead(context.Background(), ownerID, noticeID))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("someone else", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery(selectByID).
			WithArgs(noticeID).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(noticeID, ownerID, "t", "b", nil, nil, fixedNow, fixedNow))

		err := svc.MarkAsRead(context.Background(), otherID, noticeID)
		assert.ErrorIs(t, err, core.ErrForbidden)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery(selectByID).
			WithArgs(noticeID).
			WillReturnRows(sqlmock.NewRows(columns))

		err := svc.MarkAsRead(context.Background(), ownerID, noticeID)
		assert.ErrorIs(t, err, core.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id", func(t *testing.T) {
		svc, mock := newTestService(t)

		err := svc.MarkAsRead(context.Background(), ownerID, "7")
		assert.ErrorIs(t, err, core.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteChecksOwner(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(selectByID).
		WithArgs(noticeID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(noticeID, ownerID, "t", "b", nil, nil, fixedNow, fixedNow))

	err := svc.Delete(context.Background(), otherID, noticeID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	mock.ExpectQuery(selectByID).
		WithArgs(noticeID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(noticeID, ownerID, "t", "b", nil, nil, fixedNow, fixedNow))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE id = $1")).
		WithArgs(noticeID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Delete(context.Background(), ownerID, noticeID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkOperationsAreScopedToUser(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec(regexp.QuoteMeta("WHERE user_id = $1 AND read_at IS NULL")).
		WithArgs(ownerID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE user_id = $1")).
		WithArgs(ownerID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := svc.MarkAllAsRead(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = svc.DeleteAll(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToListResponse(t *testing.T) {
	kind := KindSystem
	read := fixedNow.Add(-time.Minute)

	resp := ToListResponse([]Notification{
		{ID: "a", Title: "new", CreatedAt: fixedNow.Add(-3 * time.Minute), Type: &kind},
		{ID: "b", Title: "old", CreatedAt: fixedNow.Add(-2 * time.Hour), ReadAt: &read},
	}, fixedNow)

	require.Len(t, resp.Notifications, 2)
	assert.Equal(t, 1, resp.Unread)
	assert.Equal(t, "3 minutes ago", resp.Notifications[0].Time)
	assert.False(t, resp.Notifications[0].Read)
	assert.Equal(t, "2 hours ago", resp.Notifications[1].Time)
	assert.True(t, resp.Notifications[1].Read)

	empty := ToListResponse(nil, fixedNow)
	assert.NotNil(t, empty.Notifications)
}
