// internal/component/env.go
package component

import (
	"context"

	"github.com/yanizio/depl/internal/config"
	"github.com/yanizio/depl/internal/model"
	"github.com/yanizio/depl/internal/redirect"
	"github.com/yanizio/depl/internal/registry"
	"github.com/yanizio/depl/internal/workspace"
)

// AppSource lists a workspace's Apps.  *store.Store satisfies it.
type AppSource interface {
	AppsByWorkspace(ctx context.Context, workspaceID string) ([]model.App, error)
}

// Env exposes the process-wide services to Components during Init.
type Env interface {
	Config() *config.Config
	Registry() *registry.Service
	Workspaces() *workspace.Service
	Hosts() *workspace.Cache
	Resolver() *redirect.Resolver
	Apps() AppSource
}

// Services is the plain Env implementation built by cmd/web and tests.
type Services struct {
	Cfg       *config.Config
	Reg       *registry.Service
	WS        *workspace.Service
	HostCache *workspace.Cache
	Res       *redirect.Resolver
	AppSrc    AppSource
}

func (s *Services) Config() *config.Config         { return s.Cfg }
func (s *Services) Registry() *registry.Service    { return s.Reg }
func (s *Services) Workspaces() *workspace.Service { return s.WS }
func (s *Services) Hosts() *workspace.Cache        { return s.HostCache }
func (s *Services) Resolver() *redirect.Resolver   { return s.Res }
func (s *Services) Apps() AppSource                { return s.AppSrc }
