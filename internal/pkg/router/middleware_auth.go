package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
)

// routeSet holds "METHOD /route/:pattern" keys.
type routeSet map[string]struct{}

func newRouteSet(routes ...string) routeSet {
	rs := make(routeSet, len(routes))
	for _, r := range routes {
		rs[r] = struct{}{}
	}
	return rs
}

func (rs routeSet) has(method, route string) bool {
	_, ok := rs[method+" "+route]
	return ok
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsRune(token, ' ') {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter, challenge, msg string) {
	w.Header().Set("WWW-Authenticate", challenge)
	writeJSON(w, errorResponse{Message: msg}, http.StatusUnauthorized)
}

// middlewareAuthentication puts the access token claims on the context of
// every request outside public.
func middlewareAuthentication(verifier jwt.JWT, public routeSet) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public.has(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, `Bearer realm="otpgate"`, "Authentication required")
				return
			}

			claims, err := verifier.Verify(token)
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				unauthorized(w, `Bearer realm="otpgate", error="invalid_token", error_description="token expired"`,
					"Access token expired")
				return
			case err != nil:
				unauthorized(w, `Bearer realm="otpgate", error="invalid_token"`, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
