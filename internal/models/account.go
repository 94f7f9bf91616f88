package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is the projection of the external identity provider's user record
// that the engines consume. Only the identifier, email and role set matter here.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// RoleAdministrator is the cross-cutting capability that short-circuits
// per-group authorization checks.
const RoleAdministrator = "administrator"

// Actor carries the resolved identity and role set for one inbound action.
// It is built once by the auth middleware and passed explicitly into every
// engine call instead of re-querying an ambient session per operation.
type Actor struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Roles []string  `json:"roles"`
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsAdministrator() bool {
	return a.HasRole(RoleAdministrator)
}

type AccountSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}
