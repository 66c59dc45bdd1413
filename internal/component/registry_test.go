package component

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type stubComp struct {
	name, path string
	initErr    error
	closed     bool
}

func (s *stubComp) Name() string         { return s.name }
func (s *stubComp) MountPath() string    { return s.path }
func (s *stubComp) Init(Env) error       { return s.initErr }
func (s *stubComp) Migrations() []string { return []string{"-- " + s.name} }
func (s *stubComp) Close()               { s.closed = true }
func (s *stubComp) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(s.name)) })
	return r
}

func withRegistry(t *testing.T, cs ...Component) {
	t.Helper()
	mu.Lock()
	saved := registered
	registered = map[string]Component{}
	mu.Unlock()
	for _, c := range cs {
		Register(c)
	}
	t.Cleanup(func() {
		mu.Lock()
		registered = saved
		mu.Unlock()
	})
}

func TestMountAndClose(t *testing.T) {
	a := &stubComp{name: "b-api", path: "/api"}
	b := &stubComp{name: "a-root", path: "/"}
	withRegistry(t, a, b)

	r := chi.NewRouter()
	if err := Mount(r, &Services{}); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	for path, want := range map[string]string{"/api/ping": "b-api", "/ping": "a-root"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Body.String() != want {
			t.Errorf("%s served by %q, want %q", path, rec.Body.String(), want)
		}
	}

	if m := Migrations(); len(m) != 2 || m[0] != "-- a-root" {
		t.Errorf("Migrations = %v", m)
	}

	Close()
	if !a.closed || !b.closed {
		t.Error("Close not propagated")
	}
}

func TestMountReportsInitError(t *testing.T) {
	boom := errors.New("boom")
	withRegistry(t, &stubComp{name: "bad", path: "/", initErr: boom})

	err := Mount(chi.NewRouter(), &Services{})
	var ie *InitError
	if !errors.As(err, &ie) || ie.Component != "bad" || !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
