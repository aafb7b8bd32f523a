// AngelaMos | 2026
// hint.go

package joborder

import (
	"github.com/carterperez-dev/joborders/internal/authz"
)

func abilitiesFor(p *authz.Principal, jo *JobOrder) Abilities {
	return Abilities{
		Decision: authz.Decide(p, jo.Assignment()),
		Fields:   authz.FieldsFor(p),
	}
}

func authHintFor(p *authz.Principal) AuthHint {
	if p == nil {
		return AuthHint{Roles: []string{}, Permissions: []string{}}
	}

	return AuthHint{
		User:        AuthUser{ID: p.ID, Name: p.Name, Email: p.Email},
		Roles:       nonNil(p.Roles),
		Permissions: nonNil(p.Permissions),
	}
}

func present(p *authz.Principal, jo *JobOrder) JobOrderResponse {
	return toResponse(jo, abilitiesFor(p, jo))
}

func presentAll(p *authz.Principal, orders []JobOrder) []JobOrderResponse {
	out := make([]JobOrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, present(p, &orders[i]))
	}
	return out
}
