package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apollorio/rede/internal/models"
)

// RelationshipService owns the symmetric friendship state machine between two
// accounts. All operations are keyed by the (viewer, other) pair; the stored
// edge direction is an implementation detail callers never see.
//
// Every mutation is a read, a legality check, then one conditional write.
// A conditional write that affects zero rows means the race was lost; the
// current state is re-read and reported as success, never as an error.
type RelationshipService struct {
	db       DB
	notifier NotificationDispatcher
}

func NewRelationshipService(db DB, notifier NotificationDispatcher) *RelationshipService {
	return &RelationshipService{db: db, notifier: notifier}
}

// Status resolves the viewer-relative relationship state. No side effects.
func (s *RelationshipService) Status(ctx context.Context, viewer, other uuid.UUID) (models.RelationshipState, error) {
	edge, err := s.getEdge(ctx, viewer, other)
	if err != nil {
		return models.RelationshipNone, err
	}
	return edge.State(viewer), nil
}

// Request asks for friendship with other. Symmetric concurrent requests merge
// into a single accepted edge instead of erroring, so neither side ever sees a
// "who asked first" dispute. The second return reports whether a fresh pending
// edge was written; every other outcome, merges included, is a settle of
// something that already existed.
func (s *RelationshipService) Request(ctx context.Context, actor models.Actor, other uuid.UUID) (models.RelationshipState, bool, error) {
	if actor.ID == other {
		return models.RelationshipNone, false, ErrSelfRelationship
	}
	exists, err := s.accountExists(ctx, other)
	if err != nil {
		return models.RelationshipNone, false, err
	}
	if !exists {
		return models.RelationshipNone, false, ErrAccountNotFound
	}

	edge, err := s.getEdge(ctx, actor.ID, other)
	if err != nil {
		return models.RelationshipNone, false, err
	}

	switch edge.State(actor.ID) {
	case models.RelationshipFriends, models.RelationshipPendingSent, models.RelationshipBlocked:
		// Already settled in the viewer's favor or not ours to touch.
		return edge.State(actor.ID), false, nil
	case models.RelationshipPendingReceived:
		state, err := s.autoAccept(ctx, actor.ID, edge)
		return state, false, err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO relationship_edges (initiator_id, target_id, status)
		 VALUES ($1, $2, 'pending')`,
		actor.ID, other,
	)
	if isUniqueViolation(err) {
		// Lost the race against a concurrent request from the other side.
		edge, err = s.getEdge(ctx, actor.ID, other)
		if err != nil {
			return models.RelationshipNone, false, err
		}
		if edge.State(actor.ID) == models.RelationshipPendingReceived {
			state, err := s.autoAccept(ctx, actor.ID, edge)
			return state, false, err
		}
		return edge.State(actor.ID), false, nil
	}
	if err != nil {
		return models.RelationshipNone, false, fmt.Errorf("insert relationship edge: %w", err)
	}

	s.notifier.RequestReceived(ctx, other, actor.ID)
	return models.RelationshipPendingSent, true, nil
}

// Accept confirms a pending request from requester. Zero rows affected means
// the request was already resolved; the current state is returned as success
// and no second notification fires.
func (s *RelationshipService) Accept(ctx context.Context, actor models.Actor, requester uuid.UUID) (models.RelationshipState, error) {
	result, err := s.db.Exec(ctx,
		`UPDATE relationship_edges
		 SET status = 'accepted', accepted_at = NOW()
		 WHERE initiator_id = $1 AND target_id = $2 AND status = 'pending'`,
		requester, actor.ID,
	)
	if err != nil {
		return models.RelationshipNone, fmt.Errorf("accept relationship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return s.Status(ctx, actor.ID, requester)
	}

	s.notifier.RequestAccepted(ctx, requester, actor.ID)
	return models.RelationshipFriends, nil
}

// Reject drops a pending request addressed to the actor. Deleting zero rows
// (already resolved) is success, not an error.
func (s *RelationshipService) Reject(ctx context.Context, actor models.Actor, requester uuid.UUID) (models.RelationshipState, error) {
	result, err := s.db.Exec(ctx,
		`DELETE FROM relationship_edges
		 WHERE initiator_id = $1 AND target_id = $2 AND status = 'pending'`,
		requester, actor.ID,
	)
	if err != nil {
		return models.RelationshipNone, fmt.Errorf("reject relationship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return s.Status(ctx, actor.ID, requester)
	}
	return models.RelationshipNone, nil
}

// Cancel withdraws a pending request the actor sent.
func (s *RelationshipService) Cancel(ctx context.Context, actor models.Actor, target uuid.UUID) (models.RelationshipState, error) {
	result, err := s.db.Exec(ctx,
		`DELETE FROM relationship_edges
		 WHERE initiator_id = $1 AND target_id = $2 AND status = 'pending'`,
		actor.ID, target,
	)
	if err != nil {
		return models.RelationshipNone, fmt.Errorf("cancel relationship request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return s.Status(ctx, actor.ID, target)
	}
	return models.RelationshipNone, nil
}

// Remove unfriends other, whichever direction the edge was stored in.
// Removing a missing edge is a no-op success.
func (s *RelationshipService) Remove(ctx context.Context, actor models.Actor, other uuid.UUID) (models.RelationshipState, error) {
	result, err := s.db.Exec(ctx,
		`DELETE FROM relationship_edges
		 WHERE ((initiator_id = $1 AND target_id = $2) OR (initiator_id = $2 AND target_id = $1))
		   AND status = 'accepted'`,
		actor.ID, other,
	)
	if err != nil {
		return models.RelationshipNone, fmt.Errorf("remove relationship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return s.Status(ctx, actor.ID, other)
	}
	return models.RelationshipNone, nil
}

func (s *RelationshipService) ListFriends(ctx context.Context, viewer uuid.UUID) ([]models.FriendWithAccount, error) {
	rows, err := s.db.Query(ctx,
		`SELECT e.id, e.initiator_id, e.target_id, e.status, e.created_at, e.accepted_at,
		        CASE WHEN e.initiator_id = $1 THEN t.username ELSE i.username END
		 FROM relationship_edges e
		 JOIN accounts i ON e.initiator_id = i.id
		 JOIN accounts t ON e.target_id = t.id
		 WHERE (e.initiator_id = $1 OR e.target_id = $1) AND e.status = 'accepted'
		 ORDER BY CASE WHEN e.initiator_id = $1 THEN t.username ELSE i.username END`,
		viewer,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	var friends []models.FriendWithAccount
	for rows.Next() {
		var f models.FriendWithAccount
		if err := rows.Scan(&f.ID, &f.InitiatorID, &f.TargetID, &f.Status, &f.CreatedAt, &f.AcceptedAt, &f.FriendUsername); err != nil {
			return nil, fmt.Errorf("scanning friend: %w", err)
		}
		friends = append(friends, f)
	}
	if friends == nil {
		friends = []models.FriendWithAccount{}
	}
	return friends, nil
}

func (s *RelationshipService) ListPendingRequests(ctx context.Context, viewer uuid.UUID) ([]models.RelationshipRequest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT e.id, e.initiator_id, e.target_id, e.status, e.created_at, e.accepted_at, a.username
		 FROM relationship_edges e
		 JOIN accounts a ON e.initiator_id = a.id
		 WHERE e.target_id = $1 AND e.status = 'pending'
		 ORDER BY e.created_at DESC`,
		viewer,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	defer rows.Close()

	var requests []models.RelationshipRequest
	for rows.Next() {
		var r models.RelationshipRequest
		if err := rows.Scan(&r.ID, &r.InitiatorID, &r.TargetID, &r.Status, &r.CreatedAt, &r.AcceptedAt, &r.RequesterUsername); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, r)
	}
	if requests == nil {
		requests = []models.RelationshipRequest{}
	}
	return requests, nil
}

func (s *RelationshipService) ListSentRequests(ctx context.Context, viewer uuid.UUID) ([]models.FriendWithAccount, error) {
	rows, err := s.db.Query(ctx,
		`SELECT e.id, e.initiator_id, e.target_id, e.status, e.created_at, e.accepted_at, a.username
		 FROM relationship_edges e
		 JOIN accounts a ON e.target_id = a.id
		 WHERE e.initiator_id = $1 AND e.status = 'pending'
		 ORDER BY e.created_at DESC`,
		viewer,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sent requests: %w", err)
	}
	defer rows.Close()

	var requests []models.FriendWithAccount
	for rows.Next() {
		var f models.FriendWithAccount
		if err := rows.Scan(&f.ID, &f.InitiatorID, &f.TargetID, &f.Status, &f.CreatedAt, &f.AcceptedAt, &f.FriendUsername); err != nil {
			return nil, fmt.Errorf("scanning sent request: %w", err)
		}
		requests = append(requests, f)
	}
	if requests == nil {
		requests = []models.FriendWithAccount{}
	}
	return requests, nil
}

// autoAccept flips an incoming pending edge straight to accepted. Losing the
// conditional update just means someone else settled the edge first; report
// whatever holds now.
func (s *RelationshipService) autoAccept(ctx context.Context, viewer uuid.UUID, edge *models.RelationshipEdge) (models.RelationshipState, error) {
	result, err := s.db.Exec(ctx,
		`UPDATE relationship_edges
		 SET status = 'accepted', accepted_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		edge.ID,
	)
	if err != nil {
		return models.RelationshipNone, fmt.Errorf("merge symmetric request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return s.Status(ctx, viewer, edge.InitiatorID)
	}

	s.notifier.RequestAccepted(ctx, edge.InitiatorID, viewer)
	return models.RelationshipFriends, nil
}

// getEdge loads the single edge for the unordered pair, if any. A nil edge
// means no relationship exists.
func (s *RelationshipService) getEdge(ctx context.Context, a, b uuid.UUID) (*models.RelationshipEdge, error) {
	edge := &models.RelationshipEdge{}
	err := s.db.QueryRow(ctx,
		`SELECT id, initiator_id, target_id, status, created_at, accepted_at
		 FROM relationship_edges
		 WHERE (initiator_id = $1 AND target_id = $2)
		    OR (initiator_id = $2 AND target_id = $1)`,
		a, b,
	).Scan(&edge.ID, &edge.InitiatorID, &edge.TargetID, &edge.Status, &edge.CreatedAt, &edge.AcceptedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting relationship edge: %w", err)
	}
	return edge, nil
}

func (s *RelationshipService) accountExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking account existence: %w", err)
	}
	return exists, nil
}
