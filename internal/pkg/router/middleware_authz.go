package router

import (
	"log/slog"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
)

// middlewareAuthorization enforces "sub, obj, act" where sub is the
// authenticated email. It must run after authentication.
func middlewareAuthorization(enforcer *casbin.Enforcer, obj, act string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clm := jwt.GetAuth(r.Context())
			if clm == nil {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			if enforcer == nil {
				writeJSON(w, errorResponse{Message: "Access denied"}, http.StatusForbidden)
				return
			}

			ok, err := enforcer.Enforce(clm.UserEmail, obj, act)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to enforce policy", "object", obj, "action", act, "error", err)
				writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
				return
			}
			if !ok {
				writeJSON(w, errorResponse{Message: "Access denied"}, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
