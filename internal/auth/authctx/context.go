// Package authctx propagates the authenticated principal through request
// context without other packages knowing about the key.
package authctx

import (
	"context"

	"github.com/alanahq/alana-server/internal/model"
)

// contextKey is unexported to prevent collisions with other packages.
type contextKey struct{}

var userKey = contextKey{}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// User retrieves the authenticated user from the context.
func User(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok
}

// MustUser retrieves the authenticated user or panics. Use in handlers
// behind the authentication middleware, which guarantees presence.
func MustUser(ctx context.Context) *model.User {
	user, ok := User(ctx)
	if !ok {
		panic("authctx: no user in context")
	}
	return user
}
