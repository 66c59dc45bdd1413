// components/wellknown/wellknown.go
//
// App-association files, mounted at /.well-known.
//
// Context
// -------
// iOS and Android verify universal links and app links by fetching a JSON
// document from the link host itself, so both files are host-scoped: the
// subdomain picks the workspace, and that workspace's Apps fill the body.
//
//	GET /.well-known/apple-app-site-association
//	GET /.well-known/assetlinks.json
//
// An unknown host is 404.  A known workspace without the matching App gets
// a valid but empty document, so OS caches do not hold on to an error.
//
//------------------------------------------------------------------------------

package wellknown

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/depl/internal/api"
	"github.com/yanizio/depl/internal/apperr"
	"github.com/yanizio/depl/internal/component"
	"github.com/yanizio/depl/internal/model"
	"github.com/yanizio/depl/internal/workspace"
)

var _ component.Component = (*Component)(nil)

// Component serves the association files.
type Component struct {
	hosts      *workspace.Cache
	apps       component.AppSource
	linkDomain string
}

func (c *Component) Name() string         { return "wellknown" }
func (c *Component) MountPath() string    { return "/.well-known" }
func (c *Component) Migrations() []string { return nil }

// Init captures the workspace cache and App source.
func (c *Component) Init(env component.Env) error {
	if env.Hosts() == nil || env.Apps() == nil {
		return errors.New("workspace cache and app source are required")
	}
	c.hosts = env.Hosts()
	c.apps = env.Apps()
	c.linkDomain = "depl.link"
	if cfg := env.Config(); cfg != nil && cfg.App.LinkDomain != "" {
		c.linkDomain = cfg.App.LinkDomain
	}
	return nil
}

// Routes registers both files.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/apple-app-site-association", c.aasa)
	r.Get("/assetlinks.json", c.assetLinks)
	return r
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Documents ───────────────────────────────────*/

type aasaDoc struct {
	AppLinks aasaAppLinks `json:"applinks"`
}

type aasaAppLinks struct {
	Apps    []string     `json:"apps"`
	Details []aasaDetail `json:"details"`
}

type aasaDetail struct {
	AppID string   `json:"appID"`
	Paths []string `json:"paths"`
}

type assetStatement struct {
	Relation []string    `json:"relation"`
	Target   assetTarget `json:"target"`
}

type assetTarget struct {
	Namespace    string   `json:"namespace"`
	PackageName  string   `json:"package_name"`
	Fingerprints []string `json:"sha256_cert_fingerprints"`
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) aasa(w http.ResponseWriter, r *http.Request) {
	app, ok := c.app(w, r, model.PlatformIOS)
	if !ok {
		return
	}

	doc := aasaDoc{AppLinks: aasaAppLinks{Apps: []string{}, Details: []aasaDetail{}}}
	if app != nil {
		bundleID, _, okTarget := app.IOSTarget()
		if team := app.TeamID(); okTarget && team != "" {
			doc.AppLinks.Details = append(doc.AppLinks.Details, aasaDetail{
				AppID: team + "." + bundleID,
				Paths: []string{"*"},
			})
		}
	}
	api.JSON(w, http.StatusOK, doc)
}

func (c *Component) assetLinks(w http.ResponseWriter, r *http.Request) {
	app, ok := c.app(w, r, model.PlatformAndroid)
	if !ok {
		return
	}

	out := []assetStatement{}
	if app != nil {
		if pkg, _, okTarget := app.AndroidTarget(); okTarget {
			prints := app.SHA256List()
			if prints == nil {
				prints = []string{}
			}
			out = append(out, assetStatement{
				Relation: []string{"delegate_permission/common.handle_all_urls"},
				Target: assetTarget{
					Namespace:    "android_app",
					PackageName:  pkg,
					Fingerprints: prints,
				},
			})
		}
	}
	api.JSON(w, http.StatusOK, out)
}

// app resolves the host's workspace and returns its App for p, or nil when
// none is registered.  ok is false once an error response has been written.
func (c *Component) app(w http.ResponseWriter, r *http.Request, p model.Platform) (*model.App, bool) {
	sub := workspace.SubdomainFromHost(r.Host, c.linkDomain)
	ws, err := c.hosts.Get(r.Context(), sub)
	if err != nil {
		if errors.Is(err, workspace.ErrNotFound) {
			api.Error(w, r, apperr.NotFound.WithMessage("Unknown workspace host"))
			return nil, false
		}
		api.Error(w, r, err)
		return nil, false
	}

	apps, err := c.apps.AppsByWorkspace(r.Context(), ws.ID)
	if err != nil {
		zap.L().Error("well-known app lookup failed", zap.String("workspace_id", ws.ID), zap.Error(err))
		api.Error(w, r, err)
		return nil, false
	}
	return model.FindApp(apps, p), true
}
