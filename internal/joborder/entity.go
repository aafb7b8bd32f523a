// AngelaMos | 2026
// entity.go

package joborder

import (
	"time"

	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/core"
)

const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	TypeMaintenance  = "maintenance"
	TypeRepair       = "repair"
	TypeInstallation = "installation"
	TypeInspection   = "inspection"
)

var (
	Statuses   = []string{StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled}
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	Types      = []string{TypeMaintenance, TypeRepair, TypeInstallation, TypeInspection}
)

type Note struct {
	ProblemDescription string `json:"problem_description"`
	ServicesRendered   string `json:"services_rendered"`
}

type QuotationItem struct {
	ProductName string  `json:"product_name"`
	Unit        string  `json:"unit"`
	Qty         float64 `json:"qty"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

type Attachment struct {
	Name     string `json:"name"`
	FilePath string `json:"file_path"`
}

type JobOrder struct {
	ID                   string                       `db:"id"`
	Number               string                       `db:"job_order_number"`
	CompanyName          string                       `db:"company_name"`
	CompanyContactPerson string                       `db:"company_contact_person"`
	CompanyDepartment    string                       `db:"company_department"`
	CompanyContactNumber string                       `db:"company_contact_number"`
	CompanyAddress       string                       `db:"company_address"`
	DateRequest          time.Time                    `db:"date_request"`
	DateStart            time.Time                    `db:"date_start"`
	DateEnd              time.Time                    `db:"date_end"`
	Status               string                       `db:"status"`
	Priority             string                       `db:"priority"`
	Type                 string                       `db:"type"`
	Description          *string                      `db:"description"`
	Notes                core.JSONList[Note]          `db:"notes"`
	Quotation            core.JSONList[QuotationItem] `db:"quotation"`
	Attachments          core.JSONList[Attachment]    `db:"attachments"`
	EngineerID           *string                      `db:"engineer_id"`
	SupervisorID         *string                      `db:"engineer_supervisor_id"`
	ManagerID            *string                      `db:"company_manager_id"`
	EngineerSignature    *string                      `db:"engineer_signature"`
	SupervisorSignature  *string                      `db:"engineer_supervisor_signature"`
	ManagerSignature     *string                      `db:"company_manager_signature"`
	EngineerApproved     bool                         `db:"engineer_approved"`
	SupervisorApproved   bool                         `db:"engineer_supervisor_approved"`
	ManagerApproved      bool                         `db:"company_manager_approved"`
	CreatedAt            time.Time                    `db:"created_at"`
	UpdatedAt            time.Time                    `db:"updated_at"`
	Assignees
}

// Assignees carries the display names of the assigned users. Only reads
// that join users populate it.
type Assignees struct {
	EngineerName   *string `db:"engineer_name"`
	SupervisorName *string `db:"engineer_supervisor_name"`
	ManagerName    *string `db:"company_manager_name"`
}

// Assignment is the view of a job order the decision engine consumes.
func (j *JobOrder) Assignment() authz.Assignment {
	return authz.Assignment{
		EngineerID:   j.EngineerID,
		SupervisorID: j.SupervisorID,
		ManagerID:    j.ManagerID,
	}
}

// AssigneeIDs lists the distinct non-nil assignment ids.
func (j *JobOrder) AssigneeIDs() []string {
	seen := make(map[string]struct{}, 3)
	ids := make([]string, 0, 3)

	for _, id := range []*string{j.EngineerID, j.SupervisorID, j.ManagerID} {
		if id == nil || *id == "" {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}

	return ids
}
