package handlers

import (
	"context"

	"github.com/apollorio/rede/internal/models"
)

type contextKey string

const actorContextKey contextKey = "actor"

func SetActorInContext(ctx context.Context, actor *models.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func GetActorFromContext(ctx context.Context) *models.Actor {
	actor, _ := ctx.Value(actorContextKey).(*models.Actor)
	return actor
}
