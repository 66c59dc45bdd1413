package redirect

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yanizio/depl/internal/jsonobj"
	"github.com/yanizio/depl/internal/model"
	"github.com/yanizio/depl/internal/store"
	"github.com/yanizio/depl/internal/workspace"
)

const (
	uaAndroid = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Mobile Safari/537.36"
	uaIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
	uaIPad    = "Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) AppleWebKit/605.1.15"
	uaDesktop = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"
)

func TestDetectPlatform(t *testing.T) {
	cases := map[string]Platform{
		uaAndroid:                   PlatformAndroid,
		uaIPhone:                    PlatformIOS,
		uaIPad:                      PlatformIOS,
		"Mozilla/5.0 (iPod touch)":  PlatformIOS,
		uaDesktop:                   PlatformOther,
		"":                          PlatformOther,
		"ANDROID but also iPhone":   PlatformAndroid,
		"facebookexternalhit/1.1":   PlatformOther,
	}
	for ua, want := range cases {
		if got := DetectPlatform(ua); got != want {
			t.Errorf("DetectPlatform(%q) = %s, want %s", ua, got, want)
		}
	}
}

func TestIntentURL(t *testing.T) {
	got := IntentURL("acme.depl.link", "promo", "com.example.app", "")
	want := "intent://acme.depl.link/promo#Intent;package=com.example.app;" +
		"action=android.intent.action.VIEW;scheme=https;" +
		"S.browser_fallback_url=https%3A%2F%2Fplay.google.com%2Fstore%2Fapps%2Fdetails%3Fid%3Dcom.example.app;end;"
	if got != want {
		t.Fatalf("IntentURL =\n %s\nwant\n %s", got, want)
	}

	custom := IntentURL("acme.depl.link", "promo", "com.example.app", "https://example.com/get?x=1")
	if !strings.Contains(custom, "S.browser_fallback_url=https%3A%2F%2Fexample.com%2Fget%3Fx%3D1;end;") {
		t.Fatalf("explicit fallback not used: %s", custom)
	}
}

func TestUniversalLink(t *testing.T) {
	p, _ := jsonobj.Parse([]byte(`{"user_id":"42"}`))
	if got := UniversalLink("acme.depl.link", "invite", p); got != "https://acme.depl.link/invite?user_id=42" {
		t.Fatalf("UniversalLink = %s", got)
	}
	if got := UniversalLink("acme.depl.link", "invite", jsonobj.New()); got != "https://acme.depl.link/invite" {
		t.Fatalf("UniversalLink(empty) = %s", got)
	}
}

func TestStoreURLs(t *testing.T) {
	if got := AppStoreURL("1234567890"); got != "https://apps.apple.com/app/id1234567890" {
		t.Fatalf("AppStoreURL = %s", got)
	}
	if got := PlayStoreURL("com.example.app"); got != "https://play.google.com/store/apps/details?id=com.example.app" {
		t.Fatalf("PlayStoreURL = %s", got)
	}
}

//
// resolver fixtures
//

type fakeWorkspaces map[string]*model.Workspace

func (f fakeWorkspaces) Get(_ context.Context, sub string) (*model.Workspace, error) {
	if ws, ok := f[sub]; ok {
		return ws, nil
	}
	return nil, workspace.ErrNotFound
}

type fakeStore struct {
	links    map[string]*model.Deeplink
	apps     []model.App
	clickErr error
	block    chan struct{}
	clicks   int32
}

func (f *fakeStore) DeeplinkBySlug(_ context.Context, id, slug string) (*model.Deeplink, error) {
	if dl, ok := f.links[id+"/"+slug]; ok {
		return dl, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) AppsByWorkspace(context.Context, string) ([]model.App, error) {
	return f.apps, nil
}

func (f *fakeStore) IncrementClick(ctx context.Context, _, _ string) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	atomic.AddInt32(&f.clicks, 1)
	return f.clickErr
}

func app(t *testing.T, p model.Platform, data string) model.App {
	t.Helper()
	o, err := jsonobj.Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	return model.App{ID: "app-" + string(p), WorkspaceID: "ws-acme", Platform: p, PlatformData: o}
}

func fixture(t *testing.T, apps ...model.App) (*Resolver, *fakeStore) {
	t.Helper()
	params, _ := jsonobj.Parse([]byte(`{"user_id":"42"}`))
	st := &fakeStore{
		links: map[string]*model.Deeplink{
			"ws-acme/invite": {WorkspaceID: "ws-acme", Slug: "invite", AppParams: params},
		},
		apps: apps,
	}
	wss := fakeWorkspaces{"acme": {ID: "ws-acme", SubDomain: "acme"}}
	return New(st, wss, Options{LinkDomain: "depl.link", ClickTimeout: time.Second}), st
}

func bothApps(t *testing.T) []model.App {
	return []model.App{
		app(t, model.PlatformAndroid, `{"package_name":"com.example.app","sha256_list":["AA"]}`),
		app(t, model.PlatformIOS, `{"bundle_id":"com.example.ios","team_id":"ABCDE12345","app_id":"1234567890"}`),
	}
}

func TestResolveDispatch(t *testing.T) {
	r, st := fixture(t, bothApps(t)...)
	ctx := context.Background()

	android := r.Resolve(ctx, Visit{Host: "acme.depl.link", Slug: "invite", UserAgent: uaAndroid})
	if android.Outcome != OutcomeRedirect || !strings.HasPrefix(android.Target, "intent://acme.depl.link/invite#Intent;package=com.example.app;") {
		t.Fatalf("android decision = %+v", android)
	}

	ios := r.Resolve(ctx, Visit{Host: "acme.depl.link:443", Slug: "invite", UserAgent: uaIPhone})
	if ios.Outcome != OutcomeRedirect || ios.Target != "https://acme.depl.link/invite?user_id=42" {
		t.Fatalf("ios decision = %+v", ios)
	}

	desktop := r.Resolve(ctx, Visit{Host: "acme.depl.link", Slug: "invite", UserAgent: uaDesktop})
	if desktop.Outcome != OutcomeFallback || desktop.Target != "" {
		t.Fatalf("desktop decision = %+v", desktop)
	}
	if desktop.AppStoreURL != "https://apps.apple.com/app/id1234567890" ||
		desktop.PlayStoreURL != "https://play.google.com/store/apps/details?id=com.example.app" {
		t.Fatalf("badges = %q / %q", desktop.AppStoreURL, desktop.PlayStoreURL)
	}

	r.Wait()
	if st.clicks != 3 {
		t.Fatalf("clicks = %d, want 3", st.clicks)
	}
}

func TestResolveNotFound(t *testing.T) {
	r, st := fixture(t, bothApps(t)...)
	ctx := context.Background()

	for _, v := range []Visit{
		{Host: "acme.depl.link", Slug: "missing", UserAgent: uaAndroid},
		{Host: "ghost.depl.link", Slug: "invite", UserAgent: uaAndroid},
	} {
		if d := r.Resolve(ctx, v); d.Outcome != OutcomeNotFound || d.Target != "" {
			t.Fatalf("Resolve(%+v) = %+v", v, d)
		}
	}
	r.Wait()
	if st.clicks != 0 {
		t.Fatalf("missing links counted %d clicks", st.clicks)
	}
}

func TestResolveHoldsWhenPlatformAppMissing(t *testing.T) {
	// Only iOS is configured; Android visitors stay on the holding page.
	r, _ := fixture(t, app(t, model.PlatformIOS, `{"bundle_id":"com.example.ios"}`))
	d := r.Resolve(context.Background(), Visit{Host: "acme.depl.link", Slug: "invite", UserAgent: uaAndroid})
	if d.Outcome != OutcomeHold || d.Target != "" {
		t.Fatalf("decision = %+v", d)
	}

	r2, _ := fixture(t, app(t, model.PlatformIOS, `{"bundle_id":""}`))
	d = r2.Resolve(context.Background(), Visit{Host: "acme.depl.link", Slug: "invite", UserAgent: uaIPhone})
	if d.Outcome != OutcomeHold {
		t.Fatalf("empty bundle_id decision = %+v", d)
	}
	r.Wait()
	r2.Wait()
}

func TestClickFailureDoesNotBlock(t *testing.T) {
	r, st := fixture(t, bothApps(t)...)
	st.block = make(chan struct{})
	st.clickErr = errors.New("db down")

	done := make(chan Decision, 1)
	go func() {
		done <- r.Resolve(context.Background(), Visit{Host: "acme.depl.link", Slug: "invite", UserAgent: uaIPhone})
	}()

	select {
	case d := <-done:
		if d.Outcome != OutcomeRedirect {
			t.Fatalf("decision = %+v", d)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Resolve waited on the click increment")
	}

	close(st.block)
	r.Wait()
	if st.clicks != 1 {
		t.Fatalf("clicks = %d", st.clicks)
	}
}

//
// page
//

func TestRenderRedirectPage(t *testing.T) {
	r, _ := fixture(t, bothApps(t)...)
	d := r.Resolve(context.Background(), Visit{Host: "acme.depl.link", Slug: "invite", UserAgent: uaIPhone})
	d.Deeplink.SocialMeta = model.SocialMeta{Title: "Join Acme"}
	r.Wait()

	rec := httptest.NewRecorder()
	if err := Render(rec, d, time.Second); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`<meta property="og:title" content="Join Acme">`,
		`<meta property="og:description" content="` + model.DefaultSocialDescription + `">`,
		`<meta property="og:image" content="https://acme.depl.link/images/og-image.jpg">`,
		`<meta name="viewport" content="width=device-width, initial-scale=1">`,
		`<link rel="canonical" href="https://acme.depl.link/invite">`,
		`setTimeout(`,
		`1000`,
		`invite?user_id=42`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "script-src 'unsafe-inline'") {
		t.Errorf("CSP = %q", csp)
	}
}

func TestRenderHoldAndNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	hold := Decision{Outcome: OutcomeHold, LinkHost: "acme.depl.link", Deeplink: &model.Deeplink{Slug: "x"}}
	if err := Render(rec, hold, 0); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(rec.Body.String(), "setTimeout") {
		t.Fatal("hold page navigates")
	}

	rec = httptest.NewRecorder()
	if err := Render(rec, Decision{Outcome: OutcomeNotFound}, 0); err != nil {
		t.Fatal(err)
	}
	if rec.Code != 404 || !strings.Contains(rec.Body.String(), "Link not found") {
		t.Fatalf("not found page: %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `rel="canonical"`) {
		t.Fatal("not found page has a canonical link")
	}
}
