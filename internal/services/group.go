package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apollorio/rede/internal/logging"
	"github.com/apollorio/rede/internal/models"
)

// PublicationPolicy resolves the initial status of a newly created open
// group. Gated groups never consult it: they always start as drafts and go
// through moderation review, administrators included.
type PublicationPolicy interface {
	InitialStatus(actor models.Actor, params models.CreateGroupParams) models.GroupStatus
}

// PublishImmediately is the default open-group policy.
type PublishImmediately struct{}

func (PublishImmediately) InitialStatus(models.Actor, models.CreateGroupParams) models.GroupStatus {
	return models.GroupStatusPublished
}

type GroupService struct {
	db         DB
	moderation ModerationQueue
	policy     PublicationPolicy
}

func NewGroupService(db DB, moderation ModerationQueue, policy PublicationPolicy) *GroupService {
	if policy == nil {
		policy = PublishImmediately{}
	}
	return &GroupService{db: db, moderation: moderation, policy: policy}
}

// Create inserts the group and its owner membership in one transaction. The
// creator is owner immediately, whatever the publication status ends up being.
func (s *GroupService) Create(ctx context.Context, actor models.Actor, params models.CreateGroupParams) (*models.Group, error) {
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return nil, ErrGroupNameRequired
	}
	if params.Kind != models.GroupKindOpen && params.Kind != models.GroupKindGated {
		return nil, ErrBadGroupKind
	}

	status := models.GroupStatusDraft
	if params.Kind == models.GroupKindOpen {
		status = s.policy.InitialStatus(actor, params)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin group create: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	group := &models.Group{}
	err = tx.QueryRow(ctx,
		`INSERT INTO groups (kind, status, name, description, creator_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, kind, status, name, description, creator_id, created_at, updated_at`,
		params.Kind, status, params.Name, params.Description, actor.ID,
	).Scan(&group.ID, &group.Kind, &group.Status, &group.Name, &group.Description,
		&group.CreatorID, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO memberships (group_id, account_id, role)
		 VALUES ($1, $2, 'owner')`,
		group.ID, actor.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit group create: %w", err)
	}
	committed = true

	if group.Kind == models.GroupKindGated {
		if err := s.moderation.Enqueue(ctx, "group", group.ID); err != nil {
			// The group is created either way; review tooling sweeps drafts.
			logging.Error("Failed to enqueue group for moderation", map[string]interface{}{
				"group_id": group.ID.String(),
				"error":    err.Error(),
			})
		}
	}

	return group, nil
}

func (s *GroupService) GetByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
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
