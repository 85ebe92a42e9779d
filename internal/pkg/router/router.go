package router

import (
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

// Handler returns the payload for the success envelope, or an error for the
// error envelope.
type Handler func(r *Request) (any, error)

// Config holds what NewRouter needs.
type Config struct {
	Config config.Config
	// UUID generates correlation ids for requests that arrive without one.
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	Enforcer   *casbin.Enforcer
}

// Router serves the JSON API on top of httprouter. Every endpoint runs the
// same middleware chain, plus its own middlewares innermost.
type Router struct {
	hr       *httprouter.Router
	enforcer *casbin.Enforcer
	mws      []Middleware
}

// publicRoutes are reachable without an access token.
var publicRoutes = newRouteSet(
	"GET /health",
	"POST /api/v1/identity/register",
	"POST /api/v1/identity/register/verify",
	"POST /api/v1/identity/register/resend",
	"POST /api/v1/identity/login",
	"POST /api/v1/identity/login/verify",
	"POST /api/v1/identity/login/resend",
	"POST /api/v1/identity/refresh",
	"POST /api/v1/otp/status",
)

// NewRouter builds the router with the middleware chain, outermost first:
// panic recovery, client IP, correlation id, tracing and access logs,
// maintenance switch, then authentication.
func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	hr.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, errorResponse{Message: "Welcome to API OTPGate"}, http.StatusOK)
	})

	return &Router{
		hr:       hr,
		enforcer: cfg.Enforcer,
		mws: []Middleware{
			middlewareRecoverer(cfg.Instrument),
			middlewareIP(cfg.Config),
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareAuthentication(cfg.JWT, publicRoutes),
		},
	}
}

// GET registers h for GET path.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodGet, path, h, mws)
}

// POST registers h for POST path.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodPost, path, h, mws)
}

func (r *Router) handle(method, path string, h Handler, mws []Middleware) {
	endpoint := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(*statusRecorder); ok {
				rec.SetError(err)
			}
			encodeError(w, err)
			return
		}
		encodeSuccess(w, resp)
	})

	chain := make([]Middleware, 0, len(r.mws)+len(mws))
	chain = append(append(chain, r.mws...), mws...)
	r.hr.Handler(method, path, Chain(endpoint, chain...))
}

// Authorize allows the request only when the authenticated user holds
// (obj, act) in the casbin policy.
func (r *Router) Authorize(obj, act string) Middleware {
	return middlewareAuthorization(r.enforcer, obj, act)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
