// AngelaMos | 2026
// deny.go

package authz

import (
	"errors"

	"github.com/carterperez-dev/joborders/internal/core"
)

type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

const (
	ReasonUnauthenticated = "Unauthorized"
	ReasonEdit            = "You do not have permission to edit this job order. " +
		"Only admins, moderators, or assigned engineers, supervisors, " +
		"and managers can edit job orders."
	ReasonDelete = "You do not have permission to delete job orders. " +
		"Only admins and moderators can delete job orders."
	ReasonView = "You do not have permission to view job orders."
)

// DeniedError is a terminal authorization refusal. Reason is safe to show
// to the end user.
type DeniedError struct {
	Action Action
	Reason string
}

func (e *DeniedError) Error() string {
	return "authz: " + string(e.Action) + " denied: " + e.Reason
}

func (e *DeniedError) Unwrap() error {
	return core.ErrForbidden
}

func (e *DeniedError) Unauthenticated() bool {
	return e.Reason == ReasonUnauthenticated
}

func deny(action Action, reason string) error {
	return &DeniedError{Action: action, Reason: reason}
}

func AuthorizeView(s Subject) error {
	if !authenticated(s) {
		return deny(ActionView, ReasonUnauthenticated)
	}
	if !CanViewJobOrder(s) {
		return deny(ActionView, ReasonView)
	}
	return nil
}

func AuthorizeEdit(s Subject, a Assignment) error {
	if !authenticated(s) {
		return deny(ActionEdit, ReasonUnauthenticated)
	}
	if !CanEditJobOrder(s, a) {
		return deny(ActionEdit, ReasonEdit)
	}
	return nil
}

func AuthorizeDelete(s Subject) error {
	if !authenticated(s) {
		return deny(ActionDelete, ReasonUnauthenticated)
	}
	if !CanDeleteJobOrder(s) {
		return deny(ActionDelete, ReasonDelete)
	}
	return nil
}

// DenialReason extracts the user-facing reason from a refusal returned by
// one of the Authorize functions.
func DenialReason(err error) (string, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Reason, true
	}
	return "", false
}
