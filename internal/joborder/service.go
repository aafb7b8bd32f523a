// AngelaMos | 2026
// service.go

package joborder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/user"
)

// UserDirectory answers the user lookups job orders need.
type UserDirectory interface {
	AllExist(ctx context.Context, ids []string) (bool, error)
	ListBrief(ctx context.Context) ([]user.Brief, error)
}

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body, kind string) error
}

const notificationKind = "job_order"

type Service struct {
	repo     Repository
	users    UserDirectory
	notifier Notifier
	loc      *time.Location
	pageSize int
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Service)

// WithNotifier enables assignment notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLocation sets the time zone that decides a number's calendar day.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	repo Repository,
	users UserDirectory,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		repo:     repo,
		users:    users,
		loc:      time.UTC,
		pageSize: 10,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) PageSize() int {
	return s.pageSize
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]JobOrder, int, error) {
	params.Normalize(s.pageSize)
	return s.repo.List(ctx, params)
}

func (s *Service) Get(ctx context.Context, id string) (*JobOrder, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Assignees(ctx context.Context) ([]user.Brief, error) {
	return s.users.ListBrief(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Create issues the next number for today and inserts the job order. A
// concurrent create that took the same number surfaces as
// ErrNumberConflict; it is not retried.
func (s *Service) Create(
	ctx context.Context,
	req JobOrderRequest,
) (_ *JobOrder, err error) {
	ctx, finish := core.StartSpan(ctx, "joborder.Create")
	defer func() { finish(err) }()

	jo := &JobOrder{ID: uuid.New().String()}
	if err := s.apply(ctx, jo, req); err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	from, to := dayBounds(now, s.loc)

	last, err := s.repo.LatestNumberBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	jo.Number = NextNumber(now, last)
	jo.CreatedAt = now

	if err := s.repo.Create(ctx, jo); err != nil {
		return nil, err
	}
	core.SetSpanAttributes(ctx, attribute.String("job_order.number", jo.Number))

	s.notifyAssignees(ctx, jo, nil)
	return jo, nil
}

// Update replaces every editable field. Callers must have authorized the
// edit against the stored assignment first.
func (s *Service) Update(
	ctx context.Context,
	current *JobOrder,
	req JobOrderRequest,
) (*JobOrder, error) {
	ctx, finish := core.StartSpan(ctx, "joborder.Update",
		attribute.String("job_order.id", current.ID))
	var err error
	defer func() { finish(err) }()

	previous := current.AssigneeIDs()

	updated := *current
	if err = s.apply(ctx, &updated, req); err != nil {
		return nil, err
	}

	if err = s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.notifyAssignees(ctx, &updated, previous)
	return &updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// apply validates req beyond struct tags and copies it onto jo.
func (s *Service) apply(ctx context.Context, jo *JobOrder, req JobOrderRequest) error {
	dateRequest, err := parseDate("date_request", req.DateRequest)
	if err != nil {
		return err
	}
	dateStart, err := parseDate("date_start", req.DateStart)
	if err != nil {
		return err
	}
	dateEnd, err := parseDate("date_end", req.DateEnd)
	if err != nil {
		return err
	}
	if dateEnd.Before(dateStart) {
		return core.ValidationError("date_end must be on or after date_start")
	}

	jo.EngineerID = req.EngineerID
	jo.SupervisorID = req.EngineerSupervisorID
	jo.ManagerID = req.CompanyManagerID
	jo.Assignees = Assignees{}

	ok, err := s.users.AllExist(ctx, jo.AssigneeIDs())
	if err != nil {
		return err
	}
	if !ok {
		return core.ValidationError("assigned users must exist")
	}

	jo.CompanyName = strings.TrimSpace(req.CompanyName)
	jo.CompanyContactPerson = strings.TrimSpace(req.CompanyContactPerson)
	jo.CompanyDepartment = strings.TrimSpace(req.CompanyDepartment)
	jo.CompanyContactNumber = strings.TrimSpace(req.CompanyContactNumber)
	jo.CompanyAddress = strings.TrimSpace(req.CompanyAddress)
	jo.DateRequest = dateRequest
	jo.DateStart = dateStart
	jo.DateEnd = dateEnd
	jo.Status = orDefault(req.Status, StatusOpen)
	jo.Priority = orDefault(req.Priority, PriorityLow)
	jo.Type = orDefault(req.Type, TypeMaintenance)
	jo.Description = req.Description
	jo.Notes = toNotes(req.Notes)
	jo.Quotation = toQuotation(req.Quotation)
	jo.Attachments = toAttachments(req.Attachments)
	jo.EngineerSignature = req.EngineerSignature
	jo.SupervisorSignature = req.EngineerSupervisorSignature
	jo.ManagerSignature = req.CompanyManagerSignature
	jo.EngineerApproved = req.EngineerApproved
	jo.SupervisorApproved = req.EngineerSupervisorApproved
	jo.ManagerApproved = req.CompanyManagerApproved

	return nil
}

// notifyAssignees tells users newly placed on jo. Failures are logged and
// never fail the write.
func (s *Service) notifyAssignees(ctx context.Context, jo *JobOrder, previous []string) {
	if s.notifier == nil {
		return
	}

	already := make(map[string]struct{}, len(previous))
	for _, id := range previous {
		already[id] = struct{}{}
	}

	for _, id := range jo.AssigneeIDs() {
		if _, ok := already[id]; ok {
			continue
		}

		body := fmt.Sprintf(
			"You have been assigned to job order %s for %s.",
			jo.Number,
			jo.CompanyName,
		)
		if err := s.notifier.Notify(ctx, id, "Job Order Assigned", body, notificationKind); err != nil {
			s.logger.Warn("assignment notification failed",
				"job_order_id", jo.ID,
				"user_id", id,
				"error", err,
			)
		}
	}
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, core.ValidationError(field + " must be a date formatted " + dateLayout)
	}
	return t, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func toNotes(in []NoteInput) core.JSONList[Note] {
	out := make(core.JSONList[Note], 0, len(in))
	for _, n := range in {
		out = append(out, Note{
			ProblemDescription: n.ProblemDescription,
			ServicesRendered:   n.ServicesRendered,
		})
	}
	return out
}

// toQuotation recomputes every line total; client totals are ignored.
func toQuotation(in []QuotationInput) core.JSONList[QuotationItem] {
	out := make(core.JSONList[QuotationItem], 0, len(in))
	for _, q := range in {
		out = append(out, QuotationItem{
			ProductName: q.ProductName,
			Unit:        q.Unit,
			Qty:         q.Qty,
			Price:       q.Price,
			Total:       q.Qty * q.Price,
		})
	}
	return out
}

func toAttachments(in []AttachmentInput) core.JSONList[Attachment] {
	out := make(core.JSONList[Attachment], 0, len(in))
	for _, a := range in {
		out = append(out, Attachment{Name: a.Name, FilePath: a.FilePath})
	}
	return out
}
