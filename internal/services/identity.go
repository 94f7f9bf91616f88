package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/apollorio/rede/internal/models"
)

const (
	sessionKeyPrefix = "session:"
	sessionExtendBy  = 30 * 24 * time.Hour
)

var (
	ErrSessionNotFound = fmt.Errorf("%w: session not found", ErrAuthorization)
	ErrSessionExpired  = fmt.Errorf("%w: session expired", ErrAuthorization)
)

// SessionIdentityService resolves bearer session tokens to actors. Sessions
// live in redis keyed by token hash with the database as the durable fallback,
// so a redis flush logs nobody out.
type SessionIdentityService struct {
	db    DB
	redis *redis.Client
}

func NewSessionIdentityService(db DB, redis *redis.Client) *SessionIdentityService {
	return &SessionIdentityService{db: db, redis: redis}
}

func (s *SessionIdentityService) Resolve(ctx context.Context, token string) (*models.Actor, error) {
	tokenHash := hashSessionToken(token)

	// Try redis first
	redisKey := sessionKeyPrefix + tokenHash
	accountIDStr, err := s.redis.Get(ctx, redisKey).Result()
	if err == nil {
		// Found in redis, extend the session
		s.redis.Expire(ctx, redisKey, sessionExtendBy)

		accountID, err := uuid.Parse(accountIDStr)
		if err != nil {
			return nil, fmt.Errorf("parsing account id: %w", err)
		}
		return s.actorByID(ctx, accountID)
	}

	// Fall back to the sessions table
	var accountID uuid.UUID
	var expiresAt time.Time
	err = s.db.QueryRow(ctx,
		`SELECT account_id, expires_at FROM sessions WHERE token_hash = $1`,
		tokenHash,
	).Scan(&accountID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if time.Now().After(expiresAt) {
		s.db.Exec(ctx, "DELETE FROM sessions WHERE token_hash = $1", tokenHash)
		return nil, ErrSessionExpired
	}

	return s.actorByID(ctx, accountID)
}

func (s *SessionIdentityService) actorByID(ctx context.Context, accountID uuid.UUID) (*models.Actor, error) {
	actor := &models.Actor{}
	err := s.db.QueryRow(ctx,
		`SELECT id, email, roles FROM accounts WHERE id = $1`,
		accountID,
	).Scan(&actor.ID, &actor.Email, &actor.Roles)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}
	return actor, nil
}

func hashSessionToken(token string) string {
	hashBytes := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hashBytes[:])
}
