package models

import (
	"time"

	"github.com/google/uuid"
)

type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusUsed      InviteStatus = "used"
	InviteStatusExpired   InviteStatus = "expired"
	InviteStatusCancelled InviteStatus = "cancelled"
)

// InviteToken gates entry into a gated group. Exactly one of InviteeID and
// InviteeEmail identifies the invitee. A token moves pending→used at most
// once; a token past expires_at is never consumable whatever its stored status.
type InviteToken struct {
	ID           uuid.UUID    `json:"id"`
	GroupID      uuid.UUID    `json:"group_id"`
	InviterID    uuid.UUID    `json:"inviter_id"`
	InviteeID    *uuid.UUID   `json:"invitee_id,omitempty"`
	InviteeEmail *string      `json:"invitee_email,omitempty"`
	Status       InviteStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	ExpiresAt    time.Time    `json:"expires_at"`
	UsedAt       *time.Time   `json:"used_at,omitempty"`
}
