// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web imports the
// components for side effects, calls Init(env) on each, and mounts every
// component's Routes() at its MountPath().
//
// Notes
// -----
//   - All() is sorted by name so mount order and migration order are
//     stable between runs.
//   - A component that owns background work implements Closer; cmd/web
//     calls Close after the HTTP server has drained.

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// Migrations() may return nil if the component has no schema.  Routes() is
// called once, after Init, and mounted at MountPath(), e.g:
//
//	r := chi.NewRouter()
//	r.Get("/deeplink", c.getDeeplink)
//	return r
type Component interface {
	Name() string
	MountPath() string
	Init(Env) error
	Routes() chi.Router
	Migrations() []string
}

// Closer is optional.  Close blocks until the component's background work
// has finished.
type Closer interface {
	Close()
}

var (
	mu         sync.RWMutex
	registered = map[string]Component{}
)

// Register is invoked from component init() functions.  Registering the
// same name twice replaces the earlier component.
func Register(c Component) {
	mu.Lock()
	registered[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component ordered by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registered))
	for _, c := range registered {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Migrations concatenates the DDL of every registered component.
func Migrations() []string {
	var out []string
	for _, c := range All() {
		out = append(out, c.Migrations()...)
	}
	return out
}

// Mount initialises every registered component with env and mounts its
// routes on r.
func Mount(r chi.Router, env Env) error {
	for _, c := range All() {
		if err := c.Init(env); err != nil {
			return &InitError{Component: c.Name(), Err: err}
		}
		r.Mount(c.MountPath(), c.Routes())
	}
	return nil
}

// Close calls Close on every component that implements Closer.
func Close() {
	for _, c := range All() {
		if cl, ok := c.(Closer); ok {
			cl.Close()
		}
	}
}

// InitError reports which component failed to initialise.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string { return "component " + e.Component + ": init: " + e.Err.Error() }
func (e *InitError) Unwrap() error { return e.Err }
