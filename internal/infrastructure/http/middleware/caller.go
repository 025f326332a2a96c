package middleware

import (
	"net/http"
	"strings"

	"github.com/mrops-br/hardware-storefront/internal/domain"
)

// Caller puts the bearer token of the Authorization header into the
// request context. Requests without one are anonymous.
func Caller() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if h := r.Header.Get("Authorization"); len(h) > len("Bearer ") && strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
				token = strings.TrimSpace(h[len("Bearer "):])
			}
			ctx := domain.WithCaller(r.Context(), domain.Caller{Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
