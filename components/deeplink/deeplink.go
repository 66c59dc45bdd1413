// components/deeplink/deeplink.go
//
// DEPL REST API, mounted at /api.
//
// Context
// -------
// Every route except check-subdomain is authenticated with a bearer key
// resolved by the Link Registry:
//
//	POST /deeplink            api key     create
//	GET  /deeplink?slug=      client key  read (short_code= accepted too)
//	GET  /deeplinks           api key     list, newest first
//	GET  /stats               api key     workspace totals
//	PUT  /apps/{platform}     api key     register or update an App
//	GET  /check-subdomain     none        availability check
//
// The whole subtree is rate limited per credential, falling back to the
// client IP for unauthenticated calls.
//
//------------------------------------------------------------------------------

package deeplink

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/depl/internal/api"
	"github.com/yanizio/depl/internal/auth"
	"github.com/yanizio/depl/internal/component"
	"github.com/yanizio/depl/internal/middleware"
	"github.com/yanizio/depl/internal/registry"
	"github.com/yanizio/depl/internal/store"
	"github.com/yanizio/depl/internal/workspace"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the REST API.
type Component struct {
	reg     *registry.Service
	ws      *workspace.Service
	limiter *middleware.RateLimiter
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "deeplink" }

// MountPath places the API under /api.
func (c *Component) MountPath() string { return "/api" }

// Migrations returns the DEPL schema.
func (c *Component) Migrations() []string { return store.Schema }

// Init captures the services the handlers need.
func (c *Component) Init(env component.Env) error {
	if env.Registry() == nil || env.Workspaces() == nil {
		return errors.New("registry and workspace services are required")
	}
	c.reg = env.Registry()
	c.ws = env.Workspaces()

	var rps float64
	var burst int
	if cfg := env.Config(); cfg != nil {
		rps, burst = cfg.RateLimit.RPS, cfg.RateLimit.Burst
	}
	c.limiter = middleware.NewRateLimiter(rps, burst)
	return nil
}

// Routes builds the /api router.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(c.limiter.Limit)

	r.Get("/check-subdomain", c.checkSubdomain)

	r.Group(func(r chi.Router) {
		r.Use(c.requireKey(auth.ModeAPI), c.limiter.LimitWorkspace)
		r.Post("/deeplink", c.createDeeplink)
		r.Get("/deeplinks", c.listDeeplinks)
		r.Get("/stats", c.stats)
		r.Put("/apps/{platform}", c.registerApp)
	})

	r.Group(func(r chi.Router) {
		r.Use(c.requireKey(auth.ModeClient), c.limiter.LimitWorkspace)
		r.Get("/deeplink", c.getDeeplink)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, r, errNoRoute)
	})
	return r
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Middleware ───────────────────────────────────*/

// requireKey authenticates the Authorization header and stores the
// workspace in the request context.
func (c *Component) requireKey(mode auth.Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, err := c.reg.Authenticate(r.Context(), r.Header.Get("Authorization"), mode)
			if err != nil {
				api.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithWorkspace(r.Context(), ws)))
		})
	}
}
