package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apollorio/rede/internal/models"
)

const defaultInviteTTL = 7 * 24 * time.Hour

// InviteService issues and consumes the tokens gating entry into gated
// groups. Tokens are stored hashed; the raw token is returned once at issue
// time. Several live invites to the same person may coexist, the newest valid
// one satisfies the join check.
type InviteService struct {
	db  DB
	ttl time.Duration
}

func NewInviteService(db DB, ttl time.Duration) *InviteService {
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}
	return &InviteService{db: db, ttl: ttl}
}

// Issue creates a pending token addressed to exactly one of inviteeID or
// inviteeEmail and returns the invite together with the raw token.
func (s *InviteService) Issue(ctx context.Context, inviterID, groupID uuid.UUID, inviteeID *uuid.UUID, inviteeEmail *string) (*models.InviteToken, string, error) {
	if (inviteeID == nil) == (inviteeEmail == nil || *inviteeEmail == "") {
		return nil, "", ErrInviteeUnspecified
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, "", err
	}
	tokenHash := hashInviteToken(token)
	expiresAt := time.Now().Add(s.ttl)

	invite := &models.InviteToken{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO invite_tokens (group_id, inviter_id, invitee_id, invitee_email, token_hash, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5, 'pending', $6)
		 RETURNING id, group_id, inviter_id, invitee_id, invitee_email, status, created_at, expires_at, used_at`,
		groupID, inviterID, inviteeID, inviteeEmail, tokenHash, expiresAt,
	).Scan(&invite.ID, &invite.GroupID, &invite.InviterID, &invite.InviteeID, &invite.InviteeEmail,
		&invite.Status, &invite.CreatedAt, &invite.ExpiresAt, &invite.UsedAt)
	if err != nil {
		return nil, "", fmt.Errorf("insert invite token: %w", err)
	}

	return invite, token, nil
}

// Validate is the read-only counterpart of Consume: same predicate, no
// mutation. Used to gate authorization before any membership row exists.
func (s *InviteService) Validate(ctx context.Context, groupID, accountID uuid.UUID, email string) (bool, error) {
	var valid bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM invite_tokens
			WHERE group_id = $1
			  AND status = 'pending'
			  AND expires_at > NOW()
			  AND (invitee_id = $2 OR (invitee_email IS NOT NULL AND invitee_email = $3))
		)`,
		groupID, accountID, email,
	).Scan(&valid)
	if err != nil {
		return false, fmt.Errorf("validate invite: %w", err)
	}
	return valid, nil
}

// Consume marks the newest matching pending, unexpired token used. It runs
// against q so callers can span it with the membership insert in one
// transaction. Zero rows updated means no valid invite, even if a matching
// token exists but is expired or already used.
func (s *InviteService) Consume(ctx context.Context, q Querier, groupID, accountID uuid.UUID, email string) (bool, error) {
	result, err := q.Exec(ctx,
		`UPDATE invite_tokens
		 SET status = 'used', used_at = NOW()
		 WHERE id = (
			SELECT id FROM invite_tokens
			WHERE group_id = $1
			  AND status = 'pending'
			  AND expires_at > NOW()
			  AND (invitee_id = $2 OR (invitee_email IS NOT NULL AND invitee_email = $3))
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE
		 )`,
		groupID, accountID, email,
	)
	if err != nil {
		return false, fmt.Errorf("consume invite: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Revoke cancels a still-pending token issued by inviterID.
func (s *InviteService) Revoke(ctx context.Context, inviterID, inviteID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		`UPDATE invite_tokens
		 SET status = 'cancelled'
		 WHERE id = $1 AND inviter_id = $2 AND status = 'pending'`,
		inviteID, inviterID,
	)
	if err != nil {
		return fmt.Errorf("revoke invite: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// ListByGroup returns the live invites for a group.
func (s *InviteService) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.InviteToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, group_id, inviter_id, invitee_id, invitee_email, status, created_at, expires_at, used_at
		 FROM invite_tokens
		 WHERE group_id = $1 AND status = 'pending' AND expires_at > NOW()
		 ORDER BY created_at DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	var invites []models.InviteToken
	for rows.Next() {
		var invite models.InviteToken
		if err := rows.Scan(&invite.ID, &invite.GroupID, &invite.InviterID, &invite.InviteeID, &invite.InviteeEmail,
			&invite.Status, &invite.CreatedAt, &invite.ExpiresAt, &invite.UsedAt); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, invite)
	}
	if invites == nil {
		invites = []models.InviteToken{}
	}
	return invites, nil
}

func generateInviteToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate invite token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func hashInviteToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
