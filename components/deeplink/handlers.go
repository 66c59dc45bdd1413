// components/deeplink/handlers.go
package deeplink

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/depl/internal/api"
	"github.com/yanizio/depl/internal/apperr"
	"github.com/yanizio/depl/internal/auth"
	"github.com/yanizio/depl/internal/jsonobj"
	"github.com/yanizio/depl/internal/model"
	"github.com/yanizio/depl/internal/registry"
)

const maxBody = 64 << 10

var errNoRoute = apperr.NotFound.WithMessage("No such endpoint")

type createBody struct {
	AppParams  json.RawMessage   `json:"app_params"`
	Slug       string            `json:"slug"`
	SocialMeta *model.SocialMeta `json:"social_meta"`
}

type createResponse struct {
	Success     bool      `json:"success"`
	DeeplinkURL string    `json:"deeplink_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type appBody struct {
	Name         string          `json:"name"`
	PlatformData json.RawMessage `json:"platform_data"`
}

/*──────────────────────────── Deep links ──────────────────────────────────*/

func (c *Component) createDeeplink(w http.ResponseWriter, r *http.Request) {
	ws, _ := auth.Workspace(r.Context())

	var body createBody
	if err := decode(r, &body); err != nil {
		api.Error(w, r, err)
		return
	}

	req := registry.CreateRequest{Slug: body.Slug}
	if body.SocialMeta != nil {
		req.SocialMeta = *body.SocialMeta
	}
	if len(body.AppParams) > 0 && string(body.AppParams) != "null" {
		obj, err := jsonobj.Parse(body.AppParams)
		if err != nil {
			api.Error(w, r, apperr.InvalidRequest.Wrap(err).WithMessage("app_params must be a JSON object"))
			return
		}
		req.AppParams = &obj
	}

	res, err := c.reg.CreateDeeplink(r.Context(), ws, req)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, createResponse{
		Success:     true,
		DeeplinkURL: res.DeeplinkURL,
		CreatedAt:   res.Deeplink.CreatedAt,
	})
}

func (c *Component) getDeeplink(w http.ResponseWriter, r *http.Request) {
	ws, _ := auth.Workspace(r.Context())

	slug := r.URL.Query().Get("slug")
	if slug == "" {
		slug = r.URL.Query().Get("short_code")
	}

	dl, err := c.reg.GetDeeplink(r.Context(), ws, slug)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, dl)
}

func (c *Component) listDeeplinks(w http.ResponseWriter, r *http.Request) {
	ws, _ := auth.Workspace(r.Context())
	q := r.URL.Query()

	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			api.Error(w, r, apperr.InvalidRequest.WithMessage("limit must be an integer"))
			return
		}
		limit = n
	}

	links, err := c.reg.ListDeeplinks(r.Context(), ws, q.Get("source"), limit)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, map[string]any{"success": true, "deeplinks": links})
}

func (c *Component) stats(w http.ResponseWriter, r *http.Request) {
	ws, _ := auth.Workspace(r.Context())

	st, err := c.reg.Stats(r.Context(), ws)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, map[string]any{"success": true, "stats": st})
}

/*──────────────────────────── Workspace admin ─────────────────────────────*/

func (c *Component) registerApp(w http.ResponseWriter, r *http.Request) {
	ws, _ := auth.Workspace(r.Context())

	p, err := model.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		api.Error(w, r, apperr.InvalidRequest.Wrap(err).WithMessage("platform must be ios or android"))
		return
	}

	var body appBody
	if err := decode(r, &body); err != nil {
		api.Error(w, r, err)
		return
	}
	data, err := jsonobj.Parse(body.PlatformData)
	if err != nil {
		api.Error(w, r, apperr.InvalidPlatformData.Wrap(err).WithMessage("platform_data must be a JSON object"))
		return
	}

	app, err := c.ws.RegisterApp(r.Context(), ws, p, body.Name, data)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, map[string]any{"success": true, "app": app})
}

func (c *Component) checkSubdomain(w http.ResponseWriter, r *http.Request) {
	available, err := c.ws.CheckSubdomain(r.Context(), r.URL.Query().Get("subdomain"))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, map[string]bool{"available": available})
}

/*──────────────────────────── Helpers ─────────────────────────────────────*/

// decode reads one JSON value from the body.  Anything that is not valid
// JSON, or is followed by trailing data, is INVALID_JSON.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperr.InvalidRequest.Wrap(err).WithMessage("field " + typeErr.Field + " has the wrong type")
		}
		return apperr.InvalidJSON.Wrap(err)
	}
	if dec.More() {
		return apperr.InvalidJSON.WithMessage("Request body must contain a single JSON value")
	}
	return nil
}
