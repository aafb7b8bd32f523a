// AngelaMos | 2026
// dto.go

package joborder

import (
	"strings"
	"time"

	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/user"
)

type NoteInput struct {
	ProblemDescription string `json:"problem_description" validate:"required"`
	ServicesRendered   string `json:"services_rendered"`
}

type QuotationInput struct {
	ProductName string  `json:"product_name" validate:"required,max=255"`
	Unit        string  `json:"unit"         validate:"required,max=255"`
	Qty         float64 `json:"qty"          validate:"gte=0"`
	Price       float64 `json:"price"        validate:"gte=0"`
}

type AttachmentInput struct {
	Name     string `json:"name"      validate:"required,max=255"`
	FilePath string `json:"file_path" validate:"required,max=255"`
}

// JobOrderRequest is the body of both create and update. Update is a full
// replacement, so every field is re-validated.
type JobOrderRequest struct {
	CompanyName                 string            `json:"company_name"                  validate:"required,max=255"`
	CompanyContactPerson        string            `json:"company_contact_person"        validate:"required,max=255"`
	CompanyDepartment           string            `json:"company_department"            validate:"required,max=255"`
	CompanyContactNumber        string            `json:"company_contact_number"        validate:"required,max=255"`
	CompanyAddress              string            `json:"company_address"               validate:"required"`
	DateRequest                 string            `json:"date_request"                  validate:"required,datetime=2006-01-02"`
	DateStart                   string            `json:"date_start"                    validate:"required,datetime=2006-01-02"`
	DateEnd                     string            `json:"date_end"                      validate:"required,datetime=2006-01-02"`
	Status                      string            `json:"status"                        validate:"omitempty,oneof=open in_progress completed cancelled"`
	Priority                    string            `json:"priority"                      validate:"omitempty,oneof=low medium high urgent"`
	Type                        string            `json:"type"                          validate:"omitempty,oneof=maintenance repair installation inspection"`
	Description                 *string           `json:"description"`
	Notes                       []NoteInput       `json:"notes"                         validate:"omitempty,dive"`
	Quotation                   []QuotationInput  `json:"quotation"                     validate:"omitempty,dive"`
	Attachments                 []AttachmentInput `json:"attachments"                   validate:"omitempty,dive"`
	EngineerID                  *string           `json:"engineer_id"                   validate:"omitempty,uuid"`
	EngineerSupervisorID        *string           `json:"engineer_supervisor_id"        validate:"omitempty,uuid"`
	CompanyManagerID            *string           `json:"company_manager_id"            validate:"omitempty,uuid"`
	EngineerSignature           *string           `json:"engineer_signature"            validate:"omitempty,max=255"`
	EngineerSupervisorSignature *string           `json:"engineer_supervisor_signature" validate:"omitempty,max=255"`
	CompanyManagerSignature     *string           `json:"company_manager_signature"     validate:"omitempty,max=255"`
	EngineerApproved            bool              `json:"engineer_approved"`
	EngineerSupervisorApproved  bool              `json:"engineer_supervisor_approved"`
	CompanyManagerApproved      bool              `json:"company_manager_approved"`
}

// Normalize turns blank optional strings into nulls. It runs before
// validation so an empty select box means "unassigned".
func (r *JobOrderRequest) Normalize() {
	for _, p := range []**string{
		&r.Description,
		&r.EngineerID,
		&r.EngineerSupervisorID,
		&r.CompanyManagerID,
		&r.EngineerSignature,
		&r.EngineerSupervisorSignature,
		&r.CompanyManagerSignature,
	} {
		if *p != nil && strings.TrimSpace(**p) == "" {
			*p = nil
		}
	}
}

// ListParams filters the listing. Status, Priority and Type match exactly;
// Search matches any of the listed text columns.
type ListParams struct {
	core.Pagination
	Search   string
	Status   string
	Priority string
	Type     string
}

type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Abilities is the advisory client hint attached to every job order.
type Abilities struct {
	authz.Decision
	Fields authz.FieldAccess `json:"fields"`
}

// AuthHint exposes the caller's identity, roles and permissions so a client
// can derive the same abilities locally.
type AuthHint struct {
	User        AuthUser `json:"user"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type JobOrderResponse struct {
	ID                          string          `json:"id"`
	Number                      string          `json:"job_order_number"`
	CompanyName                 string          `json:"company_name"`
	CompanyContactPerson        string          `json:"company_contact_person"`
	CompanyDepartment           string          `json:"company_department"`
	CompanyContactNumber        string          `json:"company_contact_number"`
	CompanyAddress              string          `json:"company_address"`
	DateRequest                 string          `json:"date_request"`
	DateStart                   string          `json:"date_start"`
	DateEnd                     string          `json:"date_end"`
	Status                      string          `json:"status"`
	Priority                    string          `json:"priority"`
	Type                        string          `json:"type"`
	Description                 *string         `json:"description"`
	Notes                       []Note          `json:"notes"`
	Quotation                   []QuotationItem `json:"quotation"`
	Attachments                 []Attachment    `json:"attachments"`
	EngineerID                  *string         `json:"engineer_id"`
	EngineerSupervisorID        *string         `json:"engineer_supervisor_id"`
	CompanyManagerID            *string         `json:"company_manager_id"`
	Engineer                    *UserRef        `json:"engineer,omitempty"`
	EngineerSupervisor          *UserRef        `json:"engineer_supervisor,omitempty"`
	CompanyManager              *UserRef        `json:"company_manager,omitempty"`
	EngineerSignature           *string         `json:"engineer_signature"`
	EngineerSupervisorSignature *string         `json:"engineer_supervisor_signature"`
	CompanyManagerSignature     *string         `json:"company_manager_signature"`
	EngineerApproved            bool            `json:"engineer_approved"`
	EngineerSupervisorApproved  bool            `json:"engineer_supervisor_approved"`
	CompanyManagerApproved      bool            `json:"company_manager_approved"`
	CreatedAt                   time.Time       `json:"created_at"`
	UpdatedAt                   time.Time       `json:"updated_at"`
	Abilities                   Abilities       `json:"abilities"`
}

type ListResponse struct {
	JobOrders []JobOrderResponse `json:"job_orders"`
	Auth      AuthHint           `json:"auth"`
}

type ShowResponse struct {
	JobOrder JobOrderResponse `json:"job_order"`
	Auth     AuthHint         `json:"auth"`
}

type EditResponse struct {
	JobOrder JobOrderResponse `json:"job_order"`
	Users    []user.Brief     `json:"users"`
	Auth     AuthHint         `json:"auth"`
}

type FormResponse struct {
	Users      []user.Brief `json:"users"`
	Statuses   []string     `json:"statuses"`
	Priorities []string     `json:"priorities"`
	Types      []string     `json:"types"`
	Auth       AuthHint     `json:"auth"`
}

func userRef(id, name *string) *UserRef {
	if id == nil {
		return nil
	}
	ref := &UserRef{ID: *id}
	if name != nil {
		ref.Name = *name
	}
	return ref
}

func toResponse(j *JobOrder, abilities Abilities) JobOrderResponse {
	return JobOrderResponse{
		ID:                          j.ID,
		Number:                      j.Number,
		CompanyName:                 j.CompanyName,
		CompanyContactPerson:        j.CompanyContactPerson,
		CompanyDepartment:           j.CompanyDepartment,
		CompanyContactNumber:        j.CompanyContactNumber,
		CompanyAddress:              j.CompanyAddress,
		DateRequest:                 j.DateRequest.Format(dateLayout),
		DateStart:                   j.DateStart.Format(dateLayout),
		DateEnd:                     j.DateEnd.Format(dateLayout),
		Status:                      j.Status,
		Priority:                    j.Priority,
		Type:                        j.Type,
		Description:                 j.Description,
		Notes:                       nonNil([]Note(j.Notes)),
		Quotation:                   nonNil([]QuotationItem(j.Quotation)),
		Attachments:                 nonNil([]Attachment(j.Attachments)),
		EngineerID:                  j.EngineerID,
		EngineerSupervisorID:        j.SupervisorID,
		CompanyManagerID:            j.ManagerID,
		Engineer:                    userRef(j.EngineerID, j.EngineerName),
		EngineerSupervisor:          userRef(j.SupervisorID, j.SupervisorName),
		CompanyManager:              userRef(j.ManagerID, j.ManagerName),
		EngineerSignature:           j.EngineerSignature,
		EngineerSupervisorSignature: j.SupervisorSignature,
		CompanyManagerSignature:     j.ManagerSignature,
		EngineerApproved:            j.EngineerApproved,
		EngineerSupervisorApproved:  j.SupervisorApproved,
		CompanyManagerApproved:      j.ManagerApproved,
		CreatedAt:                   j.CreatedAt,
		UpdatedAt:                   j.UpdatedAt,
		Abilities:                   abilities,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
