// components/link/link.go
//
// Redirect endpoint for workspace hosts, mounted at "/".
//
// Context
// -------
// GET https://<sub>.depl.link/<slug> runs the Redirect Resolver and answers
// with the holding page.  The resolver never fails the request: unknown
// hosts and slugs get the fallback page with 404, misconfigured Apps get
// the holding page without navigation.
//
// Notes
// -----
//   - Click counting happens in resolver goroutines.  Close waits for
//     them so shutdown does not drop in-flight increments.
//
//------------------------------------------------------------------------------

package link

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/depl/internal/component"
	"github.com/yanizio/depl/internal/metrics"
	"github.com/yanizio/depl/internal/redirect"
	"github.com/yanizio/depl/internal/requestinfo"
)

// compile-time assertions
var (
	_ component.Component = (*Component)(nil)
	_ component.Closer    = (*Component)(nil)
)

// Component serves link visits.
type Component struct {
	res   *redirect.Resolver
	delay time.Duration
	log   *zap.Logger
}

func (c *Component) Name() string         { return "link" }
func (c *Component) MountPath() string    { return "/" }
func (c *Component) Migrations() []string { return nil }

// Init captures the resolver and the page delay.
func (c *Component) Init(env component.Env) error {
	if env.Resolver() == nil {
		return errors.New("redirect resolver is required")
	}
	c.res = env.Resolver()
	c.delay = redirect.DefaultDelay
	if cfg := env.Config(); cfg != nil && cfg.App.RedirectDelay > 0 {
		c.delay = cfg.App.RedirectDelay
	}
	c.log = zap.L().Named("link")
	return nil
}

// Routes serves one path segment per link.  Anything else is not found.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{slug}", c.visit)
	r.NotFound(c.visit)
	return r
}

// Close waits for pending click increments.
func (c *Component) Close() {
	if c.res != nil {
		c.res.Wait()
	}
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handler ─────────────────────────────────────*/

func (c *Component) visit(w http.ResponseWriter, r *http.Request) {
	d := c.res.Resolve(r.Context(), redirect.Visit{
		Host:      r.Host,
		Slug:      chi.URLParam(r, "slug"),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	})

	if info := requestinfo.FromContext(r.Context()); info != nil {
		metrics.VisitsTotal.WithLabelValues(info.UA.Label(), strconv.FormatBool(info.UA.IsBot)).Inc()
		c.log.Debug("visit",
			zap.String("outcome", string(d.Outcome)),
			zap.String("platform", string(d.Platform)),
			zap.String("device", info.UA.Device),
			zap.String("country", info.Geo.CountryISO),
		)
	}

	if err := redirect.Render(w, d, c.delay); err != nil {
		c.log.Error("render redirect page", zap.Error(err))
	}
}
