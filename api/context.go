package api

import (
	"context"

	"github.com/inkwell-blog/backend/models"
)

type keyType string

const userKey keyType = "user"

// ctxWithUser stores the authenticated user on the request context.
func ctxWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// ctxGetUser retrieves the authenticated user from the context, or nil
// when the request carried no valid credentials.
func ctxGetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(userKey).(*models.User); ok {
		return user
	}
	return nil
}
