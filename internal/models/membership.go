package models

import (
	"time"

	"github.com/google/uuid"
)

// MembershipRole ties an account to a group. The pending role only exists for
// gated groups, where joining awaits admin approval.
type MembershipRole string

const (
	MembershipRoleOwner   MembershipRole = "owner"
	MembershipRoleAdmin   MembershipRole = "admin"
	MembershipRoleMember  MembershipRole = "member"
	MembershipRolePending MembershipRole = "pending"
)

// Membership is unique per (group_id, account_id). A group has at most one owner.
type Membership struct {
	GroupID   uuid.UUID      `json:"group_id"`
	AccountID uuid.UUID      `json:"account_id"`
	Role      MembershipRole `json:"role"`
	JoinedAt  time.Time      `json:"joined_at"`
}

// Active reports whether the membership grants member privileges.
func (m Membership) Active() bool {
	return m.Role == MembershipRoleOwner || m.Role == MembershipRoleAdmin || m.Role == MembershipRoleMember
}

// CanApprove reports whether the role may approve pending memberships.
func (m Membership) CanApprove() bool {
	return m.Role == MembershipRoleOwner || m.Role == MembershipRoleAdmin
}

type MemberWithAccount struct {
	Membership
	Username string `json:"username"`
}

// JoinResult is the tagged outcome of a join operation.
type JoinResult struct {
	Membership    *Membership `json:"membership,omitempty"`
	AlreadyMember bool        `json:"already_member"`
}
