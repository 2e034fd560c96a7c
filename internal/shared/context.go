package shared

import "context"

type sessionContextKey struct{}

type actorContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithActor records the acting user ID for audit records.
func ContextWithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ActorFromContext returns the acting user ID, falling back to the session user.
func ActorFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(actorContextKey{}).(int64); ok {
		return id
	}
	return SessionFromContext(ctx).UserID()
}
