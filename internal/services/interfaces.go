package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/apollorio/rede/internal/models"
)

// RelationshipEngine defines the contract for the friendship state machine
// used by handlers.
type RelationshipEngine interface {
	Status(ctx context.Context, viewer, other uuid.UUID) (models.RelationshipState, error)
	Request(ctx context.Context, actor models.Actor, other uuid.UUID) (models.RelationshipState, bool, error)
	Accept(ctx context.Context, actor models.Actor, requester uuid.UUID) (models.RelationshipState, error)
	Reject(ctx context.Context, actor models.Actor, requester uuid.UUID) (models.RelationshipState, error)
	Cancel(ctx context.Context, actor models.Actor, target uuid.UUID) (models.RelationshipState, error)
	Remove(ctx context.Context, actor models.Actor, other uuid.UUID) (models.RelationshipState, error)
	ListFriends(ctx context.Context, viewer uuid.UUID) ([]models.FriendWithAccount, error)
	ListPendingRequests(ctx context.Context, viewer uuid.UUID) ([]models.RelationshipRequest, error)
	ListSentRequests(ctx context.Context, viewer uuid.UUID) ([]models.FriendWithAccount, error)
}

// MembershipEngine defines the contract for group membership operations.
type MembershipEngine interface {
	Join(ctx context.Context, actor models.Actor, groupID uuid.UUID) (*models.JoinResult, error)
	Approve(ctx context.Context, actor models.Actor, groupID, targetID uuid.UUID) error
	Leave(ctx context.Context, actor models.Actor, groupID uuid.UUID) error
	Invite(ctx context.Context, actor models.Actor, groupID uuid.UUID, inviteeID *uuid.UUID, inviteeEmail *string) (*models.InviteToken, string, error)
	ListInvites(ctx context.Context, actor models.Actor, groupID uuid.UUID) ([]models.InviteToken, error)
	ListMembers(ctx context.Context, actor models.Actor, groupID uuid.UUID) ([]models.MemberWithAccount, error)
}

// InviteTokens is the invite subsystem surface the membership engine depends
// on. Consume takes a Querier so it can join the caller's transaction.
type InviteTokens interface {
	Issue(ctx context.Context, inviterID, groupID uuid.UUID, inviteeID *uuid.UUID, inviteeEmail *string) (*models.InviteToken, string, error)
	Validate(ctx context.Context, groupID, accountID uuid.UUID, email string) (bool, error)
	Consume(ctx context.Context, q Querier, groupID, accountID uuid.UUID, email string) (bool, error)
	Revoke(ctx context.Context, inviterID, inviteID uuid.UUID) error
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.InviteToken, error)
}

// GroupCatalog defines the contract for group creation and lookup.
type GroupCatalog interface {
	Create(ctx context.Context, actor models.Actor, params models.CreateGroupParams) (*models.Group, error)
	GetByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error)
}

// NotificationDispatcher is fire-and-forget: dispatch failures are logged and
// never roll back the state transition that triggered them. Implementations
// must only be invoked on state-creating transitions so retried actions never
// double-fire.
type NotificationDispatcher interface {
	RequestReceived(ctx context.Context, recipientID, actorID uuid.UUID)
	RequestAccepted(ctx context.Context, recipientID, actorID uuid.UUID)
	MembershipApproved(ctx context.Context, recipientID, actorID, groupID uuid.UUID)
	GroupInvite(ctx context.Context, invite *models.InviteToken, token string)
}

// ModerationQueue receives entities awaiting review.
type ModerationQueue interface {
	Enqueue(ctx context.Context, kind string, id uuid.UUID) error
}

// IdentityProvider resolves a session token to the acting account.
type IdentityProvider interface {
	Resolve(ctx context.Context, token string) (*models.Actor, error)
}
