// AngelaMos | 2026
// repository.go

package joborder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/joborders/internal/core"
)

const numberConstraint = "job_orders_number_unique"

var ErrNumberConflict = fmt.Errorf("job order number already issued: %w", core.ErrConflict)

type Repository interface {
	Create(ctx context.Context, jo *JobOrder) error
	GetByID(ctx context.Context, id string) (*JobOrder, error)
	Update(ctx context.Context, jo *JobOrder) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListParams) ([]JobOrder, int, error)
	LatestNumberBetween(ctx context.Context, from, to time.Time) (string, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const jobOrderColumns = `
	j.id, j.job_order_number, j.company_name, j.company_contact_person,
	j.company_department, j.company_contact_number, j.company_address,
	j.date_request, j.date_start, j.date_end, j.status, j.priority, j.type,
	j.description, j.notes, j.quotation, j.attachments,
	j.engineer_id, j.engineer_supervisor_id, j.company_manager_id,
	j.engineer_signature, j.engineer_supervisor_signature, j.company_manager_signature,
	j.engineer_approved, j.engineer_supervisor_approved, j.company_manager_approved,
	j.created_at, j.updated_at,
	e.name AS engineer_name,
	s.name AS engineer_supervisor_name,
	m.name AS company_manager_name`

const jobOrderFrom = `
	FROM job_orders j
	LEFT JOIN users e ON e.id = j.engineer_id
	LEFT JOIN users s ON s.id = j.engineer_supervisor_id
	LEFT JOIN users m ON m.id = j.company_manager_id`

func (r *repository) Create(ctx context.Context, jo *JobOrder) error {
	query := `
		INSERT INTO job_orders (
			id, job_order_number, company_name, company_contact_person,
			company_department, company_contact_number, company_address,
			date_request, date_start, date_end, status, priority, type,
			description, notes, quotation, attachments,
			engineer_id, engineer_supervisor_id, company_manager_id,
			engineer_signature, engineer_supervisor_signature, company_manager_signature,
			engineer_approved, engineer_supervisor_approved, company_manager_approved,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $27
		)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, jo, query,
		jo.ID,
		jo.Number,
		jo.CompanyName,
		jo.CompanyContactPerson,
		jo.CompanyDepartment,
		jo.CompanyContactNumber,
		jo.CompanyAddress,
		jo.DateRequest,
		jo.DateStart,
		jo.DateEnd,
		jo.Status,
		jo.Priority,
		jo.Type,
		jo.Description,
		jo.Notes,
		jo.Quotation,
		jo.Attachments,
		jo.EngineerID,
		jo.SupervisorID,
		jo.ManagerID,
		jo.EngineerSignature,
		jo.SupervisorSignature,
		jo.ManagerSignature,
		jo.EngineerApproved,
		jo.SupervisorApproved,
		jo.ManagerApproved,
		jo.CreatedAt,
	)
	if err != nil {
		if core.IsUniqueViolation(err, numberConstraint) {
			return fmt.Errorf("create job order %s: %w", jo.Number, ErrNumberConflict)
		}
		return fmt.Errorf("create job order: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*JobOrder, error) {
	if !core.IsUUID(id) {
		return nil, fmt.Errorf("get job order: %w", core.ErrNotFound)
	}

	query := `SELECT ` + jobOrderColumns + jobOrderFrom + `
		WHERE j.id = $1`

	var jo JobOrder
	err := r.db.GetContext(ctx, &jo, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get job order: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job order: %w", err)
	}

	return &jo, nil
}

func (r *repository) Update(ctx context.Context, jo *JobOrder) error {
	query := `
		UPDATE job_orders SET
			company_name = $2, company_contact_person = $3,
			company_department = $4, company_contact_number = $5,
			company_address = $6, date_request = $7, date_start = $8,
			date_end = $9, status = $10, priority = $11, type = $12,
			description = $13, notes = $14, quotation = $15, attachments = $16,
			engineer_id = $17, engineer_supervisor_id = $18, company_manager_id = $19,
			engineer_signature = $20, engineer_supervisor_signature = $21,
			company_manager_signature = $22, engineer_approved = $23,
			engineer_supervisor_approved = $24, company_manager_approved = $25,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &jo.UpdatedAt, query,
		jo.ID,
		jo.CompanyName,
		jo.CompanyContactPerson,
		jo.CompanyDepartment,
		jo.CompanyContactNumber,
		jo.CompanyAddress,
		jo.DateRequest,
		jo.DateStart,
		jo.DateEnd,
		jo.Status,
		jo.Priority,
		jo.Type,
		jo.Description,
		jo.Notes,
		jo.Quotation,
		jo.Attachments,
		jo.EngineerID,
		jo.SupervisorID,
		jo.ManagerID,
		jo.EngineerSignature,
		jo.SupervisorSignature,
		jo.ManagerSignature,
		jo.EngineerApproved,
		jo.SupervisorApproved,
		jo.ManagerApproved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update job order: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update job order: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if !core.IsUUID(id) {
		return fmt.Errorf("delete job order: %w", core.ErrNotFound)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM job_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete job order: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete job order: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]JobOrder, int, error) {
	var f core.Filter
	if params.Search != "" {
		pattern := f.Arg(core.Contains(params.Search))
		columns := []string{
			"j.job_order_number", "j.company_name", "j.company_contact_person",
			"j.company_department", "j.type", "j.status", "j.priority",
		}
		matches := make([]string, len(columns))
		for i, c := range columns {
			matches[i] = c + " ILIKE " + pattern
		}
		f.Where("(" + strings.Join(matches, " OR ") + ")")
	}
	f.Equal("j.status", params.Status)
	f.Equal("j.priority", params.Priority)
	f.Equal("j.type", params.Type)
	where := f.Clause()

	var total int
	countQuery := "SELECT COUNT(*) FROM job_orders j" + where
	if err := r.db.GetContext(ctx, &total, countQuery, f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count job orders: %w", err)
	}

	query := `SELECT ` + jobOrderColumns + ` ` + jobOrderFrom + where + `
		ORDER BY j.created_at DESC, j.job_order_number DESC` + f.Paginate(params.Pagination)

	var orders []JobOrder
	if err := r.db.SelectContext(ctx, &orders, query, f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("list job orders: %w", err)
	}

	return orders, total, nil
}

// LatestNumberBetween returns the number of the most recently created job
// order in [from, to), or "" when there is none.
func (r *repository) LatestNumberBetween(
	ctx context.Context,
	from, to time.Time,
) (string, error) {
	query := `
		SELECT job_order_number
		FROM job_orders
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, job_order_number DESC
		LIMIT 1`

	var number string
	err := r.db.GetContext(ctx, &number, query, from, to)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest job order number: %w", err)
	}

	return number, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM job_orders`); err != nil {
		return 0, fmt.Errorf("count job orders: %w", err)
	}
	return n, nil
}
