package deeplink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/depl/internal/component"
	"github.com/yanizio/depl/internal/model"
	"github.com/yanizio/depl/internal/registry"
	"github.com/yanizio/depl/internal/store/storetest"
	"github.com/yanizio/depl/internal/workspace"
)

type fixture struct {
	srv *httptest.Server
	mem *storetest.Mem
	ws  *model.Workspace
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := storetest.New()
	wsSvc := workspace.NewService(mem)
	ws, err := wsSvc.Create(context.Background(), workspace.CreateInput{Name: "Acme", SubDomain: "acme"})
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}

	c := &Component{}
	env := &component.Services{
		Reg: registry.New(mem, registry.Options{LinkDomain: "depl.link"}),
		WS:  wsSvc,
	}
	if err := c.Init(env); err != nil {
		t.Fatalf("Init: %v", err)
	}
	r := chi.NewRouter()
	r.Mount(c.MountPath(), c.Routes())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, mem: mem, ws: ws}
}

func (f *fixture) do(t *testing.T, method, path, key, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode body: %v", method, path, err)
	}
	return res.StatusCode, out
}

func errCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestCreateBeforeAndAfterRegisteringApp(t *testing.T) {
	f := newFixture(t)
	const create = `{"app_params":{"user_id":"42"}}`

	status, body := f.do(t, http.MethodPost, "/api/deeplink", f.ws.APIKey, create)
	if status != http.StatusBadRequest || errCode(body) != "NO_APPS_CONFIGURED" {
		t.Fatalf("before app: %d %v", status, body)
	}

	status, body = f.do(t, http.MethodPut, "/api/apps/android", f.ws.APIKey,
		`{"platform_data":{"package_name":"com.example.app","sha256_list":["AB:CD"]}}`)
	if status != http.StatusOK {
		t.Fatalf("register app: %d %v", status, body)
	}

	status, body = f.do(t, http.MethodPost, "/api/deeplink", f.ws.APIKey, create)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("after app: %d %v", status, body)
	}
	u, _ := body["deeplink_url"].(string)
	if !regexp.MustCompile(`^https://acme\.depl\.link/[A-Za-z0-9]{6}$`).MatchString(u) {
		t.Fatalf("deeplink_url = %q", u)
	}
	if _, ok := body["created_at"].(string); !ok {
		t.Fatalf("created_at missing: %v", body)
	}

	status, body = f.do(t, http.MethodPost, "/api/deeplink", f.ws.ClientKey, create)
	if status != http.StatusUnauthorized || errCode(body) != "INVALID_API_KEY" {
		t.Fatalf("client key create: %d %v", status, body)
	}
}

func TestExplicitSlugAndRead(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/api/apps/ios", f.ws.APIKey,
		`{"platform_data":{"bundle_id":"com.example.app","team_id":"ABCDE12345","app_id":"123456789"}}`)

	const create = `{"app_params":{"path":"invite","user_id":"42"},"slug":"promo","social_meta":{"title":"Hi"}}`
	status, body := f.do(t, http.MethodPost, "/api/deeplink", f.ws.APIKey, create)
	if status != http.StatusOK || body["deeplink_url"] != "https://acme.depl.link/promo" {
		t.Fatalf("create: %d %v", status, body)
	}

	status, body = f.do(t, http.MethodPost, "/api/deeplink", f.ws.APIKey, create)
	if status != http.StatusConflict || errCode(body) != "SLUG_ALREADY_EXISTS" {
		t.Fatalf("duplicate: %d %v", status, body)
	}

	status, body = f.do(t, http.MethodGet, "/api/deeplink?short_code=promo", f.ws.ClientKey, "")
	if status != http.StatusOK {
		t.Fatalf("read: %d %v", status, body)
	}
	meta, _ := body["social_meta"].(map[string]any)
	if body["slug"] != "promo" || body["source"] != "API" || meta["title"] != "Hi" {
		t.Fatalf("deeplink = %v", body)
	}
	if _, wrapped := body["deeplink"]; wrapped {
		t.Fatalf("record must be the top-level object: %v", body)
	}
	params, _ := body["app_params"].(map[string]any)
	if params["path"] != "invite" || params["user_id"] != "42" {
		t.Fatalf("app_params = %v", body["app_params"])
	}
	if meta["description"] != model.DefaultSocialDescription {
		t.Fatalf("default description not applied: %v", meta)
	}

	status, body = f.do(t, http.MethodGet, "/api/deeplink?slug=missing", f.ws.ClientKey, "")
	if status != http.StatusNotFound || errCode(body) != "NOT_FOUND" {
		t.Fatalf("missing: %d %v", status, body)
	}
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		method string
		path   string
		key    string
		body   string
		status int
		code   string
	}{
		{"no header", http.MethodPost, "/api/deeplink", "", `{}`, 401, "UNAUTHORIZED"},
		{"bad key", http.MethodPost, "/api/deeplink", "nope", `{}`, 401, "INVALID_API_KEY"},
		{"bad client key", http.MethodGet, "/api/deeplink?slug=x", "nope", "", 401, "INVALID_CLIENT_KEY"},
		{"broken json", http.MethodPost, "/api/deeplink", f.ws.APIKey, `{"app_params":`, 400, "INVALID_JSON"},
		{"missing params", http.MethodPost, "/api/deeplink", f.ws.APIKey, `{"slug":"x"}`, 400, "INVALID_REQUEST"},
		{"array params", http.MethodPost, "/api/deeplink", f.ws.APIKey, `{"app_params":[1]}`, 400, "INVALID_REQUEST"},
		{"numeric slug", http.MethodPost, "/api/deeplink", f.ws.APIKey, `{"app_params":{},"slug":7}`, 400, "INVALID_REQUEST"},
		{"bad platform", http.MethodPut, "/api/apps/windows", f.ws.APIKey, `{"platform_data":{}}`, 400, "INVALID_REQUEST"},
		{"bad ios data", http.MethodPut, "/api/apps/ios", f.ws.APIKey, `{"platform_data":{"bundle_id":"b","team_id":"short","app_id":"1"}}`, 400, "INVALID_PLATFORM_DATA"},
		{"reserved subdomain", http.MethodGet, "/api/check-subdomain?subdomain=admin", "", "", 400, "INVALID_REQUEST"},
		{"unknown route", http.MethodGet, "/api/nope", "", "", 404, "NOT_FOUND"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			status, body := f.do(t, c.method, c.path, c.key, c.body)
			if status != c.status || errCode(body) != c.code {
				t.Fatalf("got %d %v, want %d %s", status, body, c.status, c.code)
			}
		})
	}
}

func TestCheckSubdomain(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodGet, "/api/check-subdomain?subdomain=acme", "", "")
	if body["available"] != false {
		t.Fatalf("acme available = %v", body)
	}
	_, body = f.do(t, http.MethodGet, "/api/check-subdomain?subdomain=globex", "", "")
	if body["available"] != true {
		t.Fatalf("globex available = %v", body)
	}
}

func TestListAndStats(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/api/apps/android", f.ws.APIKey,
		`{"platform_data":{"package_name":"com.example.app","sha256_list":["AB:CD"]}}`)
	for _, slug := range []string{"one", "two"} {
		f.do(t, http.MethodPost, "/api/deeplink", f.ws.APIKey, `{"app_params":{},"slug":"`+slug+`"}`)
	}

	status, body := f.do(t, http.MethodGet, "/api/deeplinks?limit=1", f.ws.APIKey, "")
	if status != http.StatusOK {
		t.Fatalf("list: %d %v", status, body)
	}
	if links, _ := body["deeplinks"].([]any); len(links) != 1 {
		t.Fatalf("deeplinks = %v", body["deeplinks"])
	}

	status, body = f.do(t, http.MethodGet, "/api/deeplinks?source=desktop", f.ws.APIKey, "")
	if status != http.StatusBadRequest {
		t.Fatalf("bad source: %d %v", status, body)
	}

	_, body = f.do(t, http.MethodGet, "/api/stats", f.ws.APIKey, "")
	st, _ := body["stats"].(map[string]any)
	if st["total_links"] != float64(2) {
		t.Fatalf("stats = %v", body)
	}
}
