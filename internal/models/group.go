package models

import (
	"time"

	"github.com/google/uuid"
)

// GroupKind selects the membership policy for a group.
type GroupKind string

const (
	// GroupKindOpen groups are joinable without invitation.
	GroupKindOpen GroupKind = "open"
	// GroupKindGated groups require an invite token plus admin approval.
	GroupKindGated GroupKind = "gated"
)

type GroupStatus string

const (
	GroupStatusDraft         GroupStatus = "draft"
	GroupStatusPendingReview GroupStatus = "pending_review"
	GroupStatusPublished     GroupStatus = "published"
)

type Group struct {
	ID          uuid.UUID   `json:"id"`
	Kind        GroupKind   `json:"kind"`
	Status      GroupStatus `json:"status"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	CreatorID   uuid.UUID   `json:"creator_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type CreateGroupParams struct {
	Kind        GroupKind
	Name        string
	Description string
}
