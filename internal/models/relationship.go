package models

import (
	"time"

	"github.com/google/uuid"
)

// EdgeStatus is the stored status of a relationship edge row.
type EdgeStatus string

const (
	EdgeStatusPending  EdgeStatus = "pending"
	EdgeStatusAccepted EdgeStatus = "accepted"
	EdgeStatusBlocked  EdgeStatus = "blocked"
)

// RelationshipState is the derived status a viewer observes against another
// account. Unlike EdgeStatus it is direction-aware.
type RelationshipState string

const (
	RelationshipNone            RelationshipState = "none"
	RelationshipFriends         RelationshipState = "friends"
	RelationshipPendingSent     RelationshipState = "pending_sent"
	RelationshipPendingReceived RelationshipState = "pending_received"
	RelationshipBlocked         RelationshipState = "blocked"
)

// RelationshipEdge is a directed friendship record. At most one edge exists
// per unordered account pair; (a,b) and (b,a) describe the same relationship.
type RelationshipEdge struct {
	ID          uuid.UUID  `json:"id"`
	InitiatorID uuid.UUID  `json:"initiator_id"`
	TargetID    uuid.UUID  `json:"target_id"`
	Status      EdgeStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
}

// State derives the viewer-relative relationship state from a stored edge.
func (e *RelationshipEdge) State(viewer uuid.UUID) RelationshipState {
	if e == nil {
		return RelationshipNone
	}
	switch e.Status {
	case EdgeStatusAccepted:
		return RelationshipFriends
	case EdgeStatusBlocked:
		return RelationshipBlocked
	case EdgeStatusPending:
		if e.InitiatorID == viewer {
			return RelationshipPendingSent
		}
		return RelationshipPendingReceived
	}
	return RelationshipNone
}

type FriendWithAccount struct {
	RelationshipEdge
	FriendUsername string `json:"friend_username"`
}

type RelationshipRequest struct {
	RelationshipEdge
	RequesterUsername string `json:"requester_username"`
}
