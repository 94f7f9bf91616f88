package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apollorio/rede/internal/models"
)

// MembershipService owns the asymmetric account→group membership lifecycle.
// Joining an open group is a single idempotent insert; joining a gated group
// spends an invite token and parks the account as pending until an owner or
// admin approves it.
type MembershipService struct {
	db       DB
	invites  InviteTokens
	notifier NotificationDispatcher
}

func NewMembershipService(db DB, invites InviteTokens, notifier NotificationDispatcher) *MembershipService {
	return &MembershipService{db: db, invites: invites, notifier: notifier}
}

// Join adds the actor to the group under the group's policy.
//
// Gated joins hold the membership insert and the token consumption in one
// transaction: either both apply or the token stays consumable. A duplicate
// insert (double submit racing past the token check) is an idempotent success
// and leaves the token untouched.
func (s *MembershipService) Join(ctx context.Context, actor models.Actor, groupID uuid.UUID) (*models.JoinResult, error) {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if group.Kind == models.GroupKindOpen {
		return s.joinOpen(ctx, actor, groupID)
	}
	return s.joinGated(ctx, actor, groupID)
}

func (s *MembershipService) joinOpen(ctx context.Context, actor models.Actor, groupID uuid.UUID) (*models.JoinResult, error) {
	membership := &models.Membership{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO memberships (group_id, account_id, role)
		 VALUES ($1, $2, 'member')
		 ON CONFLICT (group_id, account_id) DO NOTHING
		 RETURNING group_id, account_id, role, joined_at`,
		groupID, actor.ID,
	).Scan(&membership.GroupID, &membership.AccountID, &membership.Role, &membership.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.JoinResult{AlreadyMember: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("join open group: %w", err)
	}
	return &models.JoinResult{Membership: membership}, nil
}

func (s *MembershipService) joinGated(ctx context.Context, actor models.Actor, groupID uuid.UUID) (*models.JoinResult, error) {
	valid, err := s.invites.Validate(ctx, groupID, actor.ID, actor.Email)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, ErrNoValidInvite
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin gated join: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	membership := &models.Membership{}
	err = tx.QueryRow(ctx,
		`INSERT INTO memberships (group_id, account_id, role)
		 VALUES ($1, $2, 'pending')
		 ON CONFLICT (group_id, account_id) DO NOTHING
		 RETURNING group_id, account_id, role, joined_at`,
		groupID, actor.ID,
	).Scan(&membership.GroupID, &membership.AccountID, &membership.Role, &membership.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost a double-submit race; the earlier attempt spent the token.
		return &models.JoinResult{AlreadyMember: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert pending membership: %w", err)
	}

	consumed, err := s.invites.Consume(ctx, tx, groupID, actor.ID, actor.Email)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// The token vanished between the check and the spend; roll the
		// membership back so nobody gets in on a dead invite.
		return nil, ErrNoValidInvite
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit gated join: %w", err)
	}
	committed = true

	return &models.JoinResult{Membership: membership}, nil
}

// Approve promotes a pending membership to member. Zero rows affected is a
// conflict, not a silent success: approval fires a notification that must not
// double-fire, so this operation is deliberately stricter than the
// relationship handshake.
func (s *MembershipService) Approve(ctx context.Context, actor models.Actor, groupID, targetID uuid.UUID) error {
	if err := s.requireApprover(ctx, actor, groupID); err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`UPDATE memberships
		 SET role = 'member'
		 WHERE group_id = $1 AND account_id = $2 AND role = 'pending'`,
		groupID, targetID,
	)
	if err != nil {
		return fmt.Errorf("approve membership: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotPendingMember
	}

	s.notifier.MembershipApproved(ctx, targetID, actor.ID, groupID)
	return nil
}

// Leave removes the actor's membership. Owners are refused until ownership
// is transferred; transfer itself is an unimplemented extension point.
func (s *MembershipService) Leave(ctx context.Context, actor models.Actor, groupID uuid.UUID) error {
	membership, err := s.getMembership(ctx, groupID, actor.ID)
	if err != nil {
		return err
	}
	if membership == nil || !membership.Active() {
		return ErrMembershipNotFound
	}
	if membership.Role == models.MembershipRoleOwner {
		return ErrOwnerCannotLeave
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM memberships
		 WHERE group_id = $1 AND account_id = $2 AND role <> 'owner'`,
		groupID, actor.ID,
	)
	if err != nil {
		return fmt.Errorf("leave group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// Invite issues a token for the group. Any active member may invite.
func (s *MembershipService) Invite(ctx context.Context, actor models.Actor, groupID uuid.UUID, inviteeID *uuid.UUID, inviteeEmail *string) (*models.InviteToken, string, error) {
	if _, err := s.getGroup(ctx, groupID); err != nil {
		return nil, "", err
	}
	if err := s.requireActiveMember(ctx, actor, groupID); err != nil {
		return nil, "", err
	}

	invite, token, err := s.invites.Issue(ctx, actor.ID, groupID, inviteeID, inviteeEmail)
	if err != nil {
		return nil, "", err
	}

	s.notifier.GroupInvite(ctx, invite, token)
	return invite, token, nil
}

// ListInvites returns the group's invite tokens. Who was invited, and at
// which address, is member-only information.
func (s *MembershipService) ListInvites(ctx context.Context, actor models.Actor, groupID uuid.UUID) ([]models.InviteToken, error) {
	if _, err := s.getGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.requireActiveMember(ctx, actor, groupID); err != nil {
		return nil, err
	}
	return s.invites.ListByGroup(ctx, groupID)
}

// ListMembers returns the roster. Open groups are browsable by anyone signed
// in; a gated group's roster, pending applicants included, is member-only.
func (s *MembershipService) ListMembers(ctx context.Context, actor models.Actor, groupID uuid.UUID) ([]models.MemberWithAccount, error) {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Kind == models.GroupKindGated {
		if err := s.requireActiveMember(ctx, actor, groupID); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.Query(ctx,
		`SELECT m.group_id, m.account_id, m.role, m.joined_at, a.username
		 FROM memberships m
		 JOIN accounts a ON m.account_id = a.id
		 WHERE m.group_id = $1
		 ORDER BY m.joined_at`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.MemberWithAccount
	for rows.Next() {
		var m models.MemberWithAccount
		if err := rows.Scan(&m.GroupID, &m.AccountID, &m.Role, &m.JoinedAt, &m.Username); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if members == nil {
		members = []models.MemberWithAccount{}
	}
	return members, nil
}

func (s *MembershipService) requireActiveMember(ctx context.Context, actor models.Actor, groupID uuid.UUID) error {
	if actor.IsAdministrator() {
		return nil
	}
	membership, err := s.getMembership(ctx, groupID, actor.ID)
	if err != nil {
		return err
	}
	if membership == nil || !membership.Active() {
		return ErrNotGroupMember
	}
	return nil
}

func (s *MembershipService) requireApprover(ctx context.Context, actor models.Actor, groupID uuid.UUID) error {
	if actor.IsAdministrator() {
		return nil
	}
	membership, err := s.getMembership(ctx, groupID, actor.ID)
	if err != nil {
		return err
	}
	if membership == nil || !membership.CanApprove() {
		return ErrNotGroupAdmin
	}
	return nil
}

func (s *MembershipService) getMembership(ctx context.Context, groupID, accountID uuid.UUID) (*models.Membership, error) {
	membership := &models.Membership{}
	err := s.db.QueryRow(ctx,
		`SELECT group_id, account_id, role, joined_at
		 FROM memberships
		 WHERE group_id = $1 AND account_id = $2`,
		groupID, accountID,
	).Scan(&membership.GroupID, &membership.AccountID, &membership.Role, &membership.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return membership, nil
}

func (s *MembershipService) getGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRow(ctx,
		`SELECT id, kind, status, name, description, creator_id, created_at, updated_at
		 FROM groups WHERE id = $1`,
		groupID,
	).Scan(&group.ID, &group.Kind, &group.Status, &group.Name, &group.Description,
		&group.CreatorID, &group.CreatedAt, &group.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return group, nil
}
