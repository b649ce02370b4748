// Package actorctx carries the identity driving the current unit of work.
// Each request derives its own context, so two concurrent requests can never
// observe each other's actor; there is no process-wide state here.
package actorctx

import "context"

type contextKey string

const actorKey contextKey = "apptracker.actor"

// Actor is the resolved identity attributed to changes made in one unit of
// work.
type Actor struct {
	Name string
	ID   int64
	Role string
}

// WithActor returns a context that carries actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the actor carried by ctx, if any. A missing actor is a
// normal state (unauthenticated work, background jobs) and is not an error.
func ActorFrom(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

// WithoutActor masks any actor set further up the chain, for work that must
// be attributed to the system rather than the triggering user.
func WithoutActor(ctx context.Context) context.Context {
	return context.WithValue(ctx, actorKey, nil)
}
