package middlewares

import (
	"net/http"
	"slices"
)

// HPP keeps the first value of each repeated query parameter and drops
// parameters outside the whitelist.
func HPP(whitelist ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				filterQueryParams(r, whitelist)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func filterQueryParams(r *http.Request, whitelist []string) {
	query := r.URL.Query()
	for k, v := range query {
		if !slices.Contains(whitelist, k) {
			query.Del(k)
			continue
		}
		if len(v) > 1 {
			query.Set(k, v[0])
		}
	}
	r.URL.RawQuery = query.Encode()
}

// BookListParams are the query parameters GET /books understands.
var BookListParams = []string{
	"active", "status", "category", "course", "tag",
	"q", "suffix", "mine", "limit", "offset",
}
