// AngelaMos | 2026
// service_test.go

package joborder

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/joborders/internal/core"
)

const (
	adminID      = "11111111-1111-4111-8111-111111111111"
	moderatorID  = "22222222-2222-4222-8222-222222222222"
	engineerID   = "33333333-3333-4333-8333-333333333333"
	supervisorID = "44444444-4444-4444-8444-444444444444"
	managerID    = "55555555-5555-4555-8555-555555555555"
	strangerID   = "66666666-6666-4666-8666-666666666666"
)

func ptr(s string) *string { return &s }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceFixture struct {
	svc      *Service
	repo     *memRepo
	notifier *recordingNotifier
	clock    time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		repo:     newMemRepo(),
		notifier: &recordingNotifier{},
		clock:    time.Date(2025, time.January, 15, 8, 0, 0, 0, time.UTC),
	}
	users := &fakeUsers{known: map[string]string{
		engineerID:   "Engineer User",
		supervisorID: "Supervisor User",
		managerID:    "Manager User",
	}}
	for id, name := range users.known {
		f.repo.names[id] = name
	}

	f.svc = NewService(f.repo, users, discardLogger(),
		WithNotifier(f.notifier),
		WithClock(func() time.Time { return f.clock }),
	)
	return f
}

func (f *serviceFixture) tick(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func validRequest() JobOrderRequest {
	return JobOrderRequest{
		CompanyName:          "Acme Corp",
		CompanyContactPerson: "Jane Doe",
		CompanyDepartment:    "Facilities",
		CompanyContactNumber: "555-0100",
		CompanyAddress:       "1 Main St",
		DateRequest:          "2025-01-15",
		DateStart:            "2025-01-16",
		DateEnd:              "2025-01-20",
	}
}

func TestCreateIssuesSequentialNumbers(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15-JO-0001", first.Number)

	f.tick(time.Minute)
	second, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15-JO-0002", second.Number)

	f.tick(24 * time.Hour)
	nextDay, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "2025-01-16-JO-0001", nextDay.Number)
}

func TestCreateFollowsSeededLatest(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.orders["seed"] = JobOrder{
		ID:        "seed",
		Number:    "2025-01-15-JO-0007",
		CreatedAt: f.clock.Add(-time.Hour),
	}

	jo, err := f.svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15-JO-0008", jo.Number)
}

func TestCreateCollisionIsNotRetried(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)

	f.repo.staleMax = true
	_, err = f.svc.Create(ctx, validRequest())
	assert.ErrorIs(t, err, ErrNumberConflict)
	assert.ErrorIs(t, err, core.ErrConflict)

	n, _ := f.repo.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestCreateAppliesDefaultsAndTotals(t *testing.T) {
	f := newServiceFixture(t)

	req := validRequest()
	req.Quotation = []QuotationInput{
		{ProductName: "Filter", Unit: "pc", Qty: 3, Price: 12.5},
		{ProductName: "Labor", Unit: "hr", Qty: 2, Price: 40},
	}

	jo, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, jo.Status)
	assert.Equal(t, PriorityLow, jo.Priority)
	assert.Equal(t, TypeMaintenance, jo.Type)
	require.Len(t, jo.Quotation, 2)
	assert.InDelta(t, 37.5, jo.Quotation[0].Total, 0.0001)
	assert.InDelta(t, 80, jo.Quotation[1].Total, 0.0001)
	assert.NotNil(t, jo.Notes)
	assert.NotNil(t, jo.Attachments)
}

func TestCreateValidation(t *testing.T) {
	t.Run("end before start", func(t *testing.T) {
		f := newServiceFixture(t)
		req := validRequest()
		req.DateEnd = "2025-01-10"

		_, err := f.svc.Create(context.Background(), req)
		require.Error(t, err)
		appErr, ok := core.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.StatusCode)
	})

	t.Run("same start and end", func(t *testing.T) {
		f := newServiceFixture(t)
		req := validRequest()
		req.DateEnd = req.DateStart

		_, err := f.svc.Create(context.Background(), req)
		assert.NoError(t, err)
	})

	t.Run("unknown assignee", func(t *testing.T) {
		f := newServiceFixture(t)
		req := validRequest()
		req.EngineerID = ptr(strangerID)

		_, err := f.svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})
}

func TestAssigneesAreNotifiedOnce(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	req := validRequest()
	req.EngineerID = ptr(engineerID)
	req.EngineerSupervisorID = ptr(engineerID)

	jo, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{engineerID}, f.notifier.recipients())

	req.CompanyManagerID = ptr(managerID)
	_, err = f.svc.Update(ctx, jo, req)
	require.NoError(t, err)
	assert.Equal(t, []string{engineerID, managerID}, f.notifier.recipients())
	assert.Equal(t, notificationKind, f.notifier.sent[1].kind)
}

func TestUpdateKeepsNumberAndCreation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	jo, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Status = StatusCompleted
	req.EngineerApproved = true

	updated, err := f.svc.Update(ctx, jo, req)
	require.NoError(t, err)
	assert.Equal(t, jo.Number, updated.Number)
	assert.Equal(t, jo.CreatedAt, updated.CreatedAt)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.True(t, updated.EngineerApproved)
	assert.False(t, updated.SupervisorApproved)
}

func TestRequestNormalizeBlanksAssignees(t *testing.T) {
	req := validRequest()
	req.EngineerID = ptr("")
	req.Description = ptr("  ")
	req.CompanyManagerID = ptr(managerID)

	req.Normalize()
	assert.Nil(t, req.EngineerID)
	assert.Nil(t, req.Description)
	assert.Equal(t, managerID, *req.CompanyManagerID)
}
