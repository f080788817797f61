// Package reqid carries the per-request correlation id between the
// middleware that assigns it and the code that reports it.
package reqid

import (
	"context"
	"net/http"
)

const Header = "X-Request-ID"

type ctxKey struct{}

func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// FromRequest prefers the context value and falls back to the header for
// requests that never passed through the middleware.
func FromRequest(r *http.Request) string {
	if id := FromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get(Header)
}
