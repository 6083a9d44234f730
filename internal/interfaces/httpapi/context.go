package httpapi

import (
	"context"

	"github.com/riskibarqy/sunday-league/internal/domain/user"
)

type contextKey int

const (
	principalKey contextKey = iota
	requestMetaKey
)

func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	if meta, ok := ctx.Value(requestMetaKey).(*requestMeta); ok {
		meta.UserID = p.UserID
	}
	return context.WithValue(ctx, principalKey, p)
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey).(user.Principal)
	return p, ok
}

func withRequestMeta(ctx context.Context, meta *requestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, meta)
}
