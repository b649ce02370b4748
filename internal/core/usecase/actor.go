package usecase

import (
	"context"

	"github.com/opsenary/apptracker/internal/actorctx"
)

// currentActorID returns the acting user's id for created_by/updated_by
// stamping, or nil outside an actor-bearing context.
func currentActorID(ctx context.Context) *int64 {
	actor, ok := actorctx.ActorFrom(ctx)
	if !ok || actor.ID == 0 {
		return nil
	}
	id := actor.ID
	return &id
}
