package middlewares

import "context"

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok && p.UserID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	p, ok := PrincipalFrom(ctx)
	return p.UserID, ok
}
