package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeRequestReceived    NotificationType = "relationship_request_received"
	NotificationTypeRequestAccepted    NotificationType = "relationship_request_accepted"
	NotificationTypeMembershipApproved NotificationType = "membership_approved"
	NotificationTypeGroupInvite        NotificationType = "group_invite"
)

type Notification struct {
	ID            uuid.UUID        `json:"id"`
	AccountID     uuid.UUID        `json:"account_id"`
	Type          NotificationType `json:"type"`
	ActorID       *uuid.UUID       `json:"actor_id,omitempty"`
	ActorUsername *string          `json:"actor_username,omitempty"`
	GroupID       *uuid.UUID       `json:"group_id,omitempty"`
	ReadAt        *time.Time       `json:"read_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
