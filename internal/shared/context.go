package shared

import "context"

type sessionCtxKey struct{}

// ContextWithSession attaches the request session so the auth handler and
// the session middleware operate on the same instance.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sess)
}

// SessionFromContext returns the request session, or nil when called outside
// the session middleware.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return sess
}
