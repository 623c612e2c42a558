package middleware

import (
	"net/http"

	"github.com/checkscam/checkscam-backend/pkg/ctxutil"
)

// RequireAdmin guards the admin lookup surface. Anonymous callers get 401,
// authenticated non-admins get 403.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ctxutil.UserIDFromCtx(r.Context()); !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !ctxutil.IsAdminCtx(r.Context()) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
