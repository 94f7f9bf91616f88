package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apollorio/rede/internal/logging"
	"github.com/apollorio/rede/internal/models"
)

// NotificationService records in-app notifications and, for invites, sends
// the invite email. All dispatch methods are fire-and-forget: the engines call
// them only after a state-creating write has landed, and a failure here never
// unwinds that write.
type NotificationService struct {
	db       DB
	email    EmailProvider
	baseURL  string
	async    func(fn func())
	asyncCtx context.Context
}

func NewNotificationService(db DB, email EmailProvider, baseURL string) *NotificationService {
	return &NotificationService{
		db:      db,
		email:   email,
		baseURL: baseURL,
		async: func(fn func()) {
			go fn()
		},
		asyncCtx: context.Background(),
	}
}

// SetAsync overrides the goroutine launcher, used by tests to run dispatch
// synchronously.
func (s *NotificationService) SetAsync(fn func(fn func())) {
	s.async = fn
}

func (s *NotificationService) RequestReceived(ctx context.Context, recipientID, actorID uuid.UUID) {
	s.insert(ctx, recipientID, &actorID, nil, models.NotificationTypeRequestReceived)
}

func (s *NotificationService) RequestAccepted(ctx context.Context, recipientID, actorID uuid.UUID) {
	s.insert(ctx, recipientID, &actorID, nil, models.NotificationTypeRequestAccepted)
}

func (s *NotificationService) MembershipApproved(ctx context.Context, recipientID, actorID, groupID uuid.UUID) {
	s.insert(ctx, recipientID, &actorID, &groupID, models.NotificationTypeMembershipApproved)
}

// GroupInvite notifies the invitee. Invitees identified by account id get an
// in-app row; email invitees get the token link mailed out.
func (s *NotificationService) GroupInvite(ctx context.Context, invite *models.InviteToken, token string) {
	if invite.InviteeID != nil {
		s.insert(ctx, *invite.InviteeID, &invite.InviterID, &invite.GroupID, models.NotificationTypeGroupInvite)
		return
	}
	if invite.InviteeEmail == nil || s.email == nil {
		return
	}

	to := *invite.InviteeEmail
	joinURL := fmt.Sprintf("%s/#groups/%s/join?token=%s", s.baseURL, invite.GroupID, token)
	s.dispatch(func(ctx context.Context) {
		err := s.email.Send(ctx, &Email{
			To:      to,
			Subject: "You have been invited to a group",
			HTML:    fmt.Sprintf(`<p>You have been invited to join a private group.</p><p><a href="%s">Accept invite</a></p><p>The invite expires on %s.</p>`, joinURL, invite.ExpiresAt.Format("Jan 2, 2006")),
			Text:    fmt.Sprintf("You have been invited to join a private group.\n\nAccept: %s\n\nThe invite expires on %s.\n", joinURL, invite.ExpiresAt.Format("Jan 2, 2006")),
		})
		if err != nil {
			logging.Error("Failed to send invite email", map[string]interface{}{
				"invite_id": invite.ID.String(),
				"error":     err.Error(),
			})
		}
	})
}

func (s *NotificationService) List(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT n.id, n.account_id, n.type, n.actor_id, a.username, n.group_id, n.read_at, n.created_at
		 FROM notifications n
		 LEFT JOIN accounts a ON n.actor_id = a.id
		 WHERE n.account_id = $1
		 ORDER BY n.created_at DESC
		 LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Type, &n.ActorID, &n.ActorUsername, &n.GroupID, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, accountID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		"UPDATE notifications SET read_at = NOW() WHERE account_id = $1 AND read_at IS NULL",
		accountID,
	)
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

func (s *NotificationService) insert(ctx context.Context, recipientID uuid.UUID, actorID, groupID *uuid.UUID, nType models.NotificationType) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications (account_id, type, actor_id, group_id)
		 VALUES ($1, $2, $3, $4)`,
		recipientID, nType, actorID, groupID,
	)
	if err != nil {
		logging.Error("Failed to insert notification", map[string]interface{}{
			"recipient_id": recipientID.String(),
			"type":         string(nType),
			"error":        err.Error(),
		})
	}
}

func (s *NotificationService) dispatch(fn func(ctx context.Context)) {
	if s.async == nil {
		return
	}
	s.async(func() {
		ctx, cancel := context.WithTimeout(s.asyncCtx, 10*time.Second)
		defer cancel()
		fn(ctx)
	})
}
