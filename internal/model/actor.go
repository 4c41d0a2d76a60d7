package model

import (
	"context"
	"strings"
)

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// AdminDisplayName is how the privileged actor appears in records.
const AdminDisplayName = "Admin"

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin: 2,
		RoleUser:  1,
	}
	have, ok := levels[role]
	if !ok {
		return false
	}
	want, ok := levels[minimum]
	if !ok {
		return false
	}
	return have >= want
}

// Actor is whoever performs an operation. The role is resolved once at the
// request boundary and travels with the context from there on.
type Actor struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Anonymous is the actor used when a request carries no identity.
var Anonymous = Actor{Name: "unknown", Role: RoleUser}

// System is the actor for scheduled jobs.
var System = Actor{Name: "system", Role: RoleAdmin}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// DisplayName returns the name written into records. Admins are always
// recorded as "Admin" regardless of the secret they signed in with.
func (a Actor) DisplayName() string {
	if a.IsAdmin() && a != System {
		return AdminDisplayName
	}
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return Anonymous.Name
	}
	return name
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying the actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor stored in ctx, or Anonymous.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Anonymous
}
