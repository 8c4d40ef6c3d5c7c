package api

import "context"

type contextKey int

const contextKeyUserID contextKey = iota

// SetUserContext returns a new context with the requester's user id attached.
func SetUserContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

// UserIDFromContext extracts the authenticated user id from context, or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyUserID).(string)
	return id
}
