package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed in
// app.maintenance.endpoints. An entry is either a route pattern, blocking all
// methods, or "METHOD /route".
func middlewareMaintenance(cfg config.Config) Middleware {
	anyMethod := routeSet{}
	byMethod := routeSet{}
	retryAfter := 0
	if cfg != nil {
		for _, entry := range cfg.GetArray("app.maintenance.endpoints") {
			if method, route, ok := strings.Cut(entry, " "); ok {
				byMethod[strings.ToUpper(method)+" "+strings.TrimSpace(route)] = struct{}{}
				continue
			}
			anyMethod[entry] = struct{}{}
		}
		retryAfter = cfg.GetInt("app.maintenance.retry_after_seconds")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			_, blocked := anyMethod[route]
			if !blocked && !byMethod.has(r.Method, route) {
				next.ServeHTTP(w, r)
				return
			}

			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
			writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
		})
	}
}
