package session

import (
	"context"

	"github.com/me/showrunner/pkg/model"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session attached to ctx, or nil for anonymous requests.
func FromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(contextKey{}).(*model.Session)
	return sess
}
