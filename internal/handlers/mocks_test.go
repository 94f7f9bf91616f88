package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/apollorio/rede/internal/models"
	"github.com/apollorio/rede/internal/services"
)

type mockRelationshipEngine struct {
	StatusFunc              func(ctx context.Context, viewer, other uuid.UUID) (models.RelationshipState, error)
	RequestFunc             func(ctx context.Context, actor models.Actor, other uuid.UUID) (models.RelationshipState, bool, error)
	AcceptFunc              func(ctx context.Context, actor models.Actor, requester uuid.UUID) (models.RelationshipState, error)
	RejectFunc              func(ctx context.Context, actor models.Actor, requester uuid.UUID) (models.RelationshipState, error)
	CancelFunc              func(ctx context.Context, actor models.Actor, target uuid.UUID) (models.RelationshipState, error)
	RemoveFunc              func(ctx context.Context, actor models.Actor, other uuid.UUID) (models.RelationshipState, error)
	ListFriendsFunc         func(ctx context.Context, viewer uuid.UUID) ([]models.FriendWithAccount, error)
	ListPendingRequestsFunc func(ctx context.Context, viewer uuid.UUID) ([]models.RelationshipRequest, error)
	ListSentRequestsFunc    func(ctx context.Context, viewer uuid.UUID) ([]models.FriendWithAccount, error)
}

func (m *mockRelationshipEngine) Status(ctx context.Context, viewer, other uuid.UUID) (models.RelationshipState, error) {
	return m.StatusFunc(ctx, viewer, other)
}

func (m *mockRelationshipEngine) Request(ctx context.Context, actor models.Actor, other uuid.UUID) (models.RelationshipState, bool, error) {
	return m.RequestFunc(ctx, actor, other)
}

func (m *mockRelationshipEngine) Accept(ctx context.Context, actor models.Actor, requester uuid.UUID) (models.RelationshipState, error) {
	return m.AcceptFunc(ctx, actor, requester)
}

func (m *mockRelationshipEngine) Reject(ctx context.Context, actor models.Actor, requester uuid.UUID) (models.RelationshipState, error) {
	return m.RejectFunc(ctx, actor, requester)
}

func (m *mockRelationshipEngine) Cancel(ctx context.Context, actor models.Actor, target uuid.UUID) (models.RelationshipState, error) {
	return m.CancelFunc(ctx, actor, target)
}

func (m *mockRelationshipEngine) Remove(ctx context.Context, actor models.Actor, other uuid.UUID) (models.RelationshipState, error) {
	return m.RemoveFunc(ctx, actor, other)
}

func (m *mockRelationshipEngine) ListFriends(ctx context.Context, viewer uuid.UUID) ([]models.FriendWithAccount, error) {
	return m.ListFriendsFunc(ctx, viewer)
}

func (m *mockRelationshipEngine) ListPendingRequests(ctx context.Context, viewer uuid.UUID) ([]models.RelationshipRequest, error) {
	return m.ListPendingRequestsFunc(ctx, viewer)
}

func (m *mockRelationshipEngine) ListSentRequests(ctx context.Context, viewer uuid.UUID) ([]models.FriendWithAccount, error) {
	return m.ListSentRequestsFunc(ctx, viewer)
}

type mockMembershipEngine struct {
	JoinFunc        func(ctx context.Context, actor models.Actor, groupID uuid.UUID) (*models.JoinResult, error)
	ApproveFunc     func(ctx context.Context, actor models.Actor, groupID, targetID uuid.UUID) error
	LeaveFunc       func(ctx context.Context, actor models.Actor, groupID uuid.UUID) error
	InviteFunc      func(ctx context.Context, actor models.Actor, groupID uuid.UUID, inviteeID *uuid.UUID, inviteeEmail *string) (*models.InviteToken, string, error)
	ListInvitesFunc func(ctx context.Context, actor models.Actor, groupID uuid.UUID) ([]models.InviteToken, error)
	ListMembersFunc func(ctx context.Context, actor models.Actor, groupID uuid.UUID) ([]models.MemberWithAccount, error)
}

func (m *mockMembershipEngine) Join(ctx context.Context, actor models.Actor, groupID uuid.UUID) (*models.JoinResult, error) {
	return m.JoinFunc(ctx, actor, groupID)
}

func (m *mockMembershipEngine) Approve(ctx context.Context, actor models.Actor, groupID, targetID uuid.UUID) error {
	return m.ApproveFunc(ctx, actor, groupID, targetID)
}

func (m *mockMembershipEngine) Leave(ctx context.Context, actor models.Actor, groupID uuid.UUID) error {
	return m.LeaveFunc(ctx, actor, groupID)
}

func (m *mockMembershipEngine) Invite(ctx context.Context, actor models.Actor, groupID uuid.UUID, inviteeID *uuid.UUID, inviteeEmail *string) (*models.InviteToken, string, error) {
	return m.InviteFunc(ctx, actor, groupID, inviteeID, inviteeEmail)
}

func (m *mockMembershipEngine) ListInvites(ctx context.Context, actor models.Actor, groupID uuid.UUID) ([]models.InviteToken, error) {
	return m.ListInvitesFunc(ctx, actor, groupID)
}

func (m *mockMembershipEngine) ListMembers(ctx context.Context, actor models.Actor, groupID uuid.UUID) ([]models.MemberWithAccount, error) {
	return m.ListMembersFunc(ctx, actor, groupID)
}

type mockGroupCatalog struct {
	CreateFunc  func(ctx context.Context, actor models.Actor, params models.CreateGroupParams) (*models.Group, error)
	GetByIDFunc func(ctx context.Context, groupID uuid.UUID) (*models.Group, error)
}

func (m *mockGroupCatalog) Create(ctx context.Context, actor models.Actor, params models.CreateGroupParams) (*models.Group, error) {
	return m.CreateFunc(ctx, actor, params)
}

func (m *mockGroupCatalog) GetByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	return m.GetByIDFunc(ctx, groupID)
}

type mockInviteTokens struct {
	IssueFunc       func(ctx context.Context, inviterID, groupID uuid.UUID, inviteeID *uuid.UUID, inviteeEmail *string) (*models.InviteToken, string, error)
	RevokeFunc      func(ctx context.Context, inviterID, inviteID uuid.UUID) error
	ListByGroupFunc func(ctx context.Context, groupID uuid.UUID) ([]models.InviteToken, error)
}

func (m *mockInviteTokens) Issue(ctx context.Context, inviterID, groupID uuid.UUID, inviteeID *uuid.UUID, inviteeEmail *string) (*models.InviteToken, string, error) {
	return m.IssueFunc(ctx, inviterID, groupID, inviteeID, inviteeEmail)
}

func (m *mockInviteTokens) Validate(ctx context.Context, groupID, accountID uuid.UUID, email string) (bool, error) {
	return false, nil
}

func (m *mockInviteTokens) Consume(ctx context.Context, q services.Querier, groupID, accountID uuid.UUID, email string) (bool, error) {
	return false, nil
}

func (m *mockInviteTokens) Revoke(ctx context.Context, inviterID, inviteID uuid.UUID) error {
	return m.RevokeFunc(ctx, inviterID, inviteID)
}

func (m *mockInviteTokens) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.InviteToken, error) {
	return m.ListByGroupFunc(ctx, groupID)
}

type mockNotificationStore struct {
	ListFunc        func(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Notification, error)
	MarkAllReadFunc func(ctx context.Context, accountID uuid.UUID) error
}

func (m *mockNotificationStore) List(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Notification, error) {
	return m.ListFunc(ctx, accountID, limit)
}

func (m *mockNotificationStore) MarkAllRead(ctx context.Context, accountID uuid.UUID) error {
	return m.MarkAllReadFunc(ctx, accountID)
}
