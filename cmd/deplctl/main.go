// cmd/deplctl/main.go
//
// DEPL operator CLI.
//
// Subcommands
// -----------
//
//	deplctl migrate
//	deplctl workspace create -name Acme -subdomain acme [-description ...]
//	deplctl app register -subdomain acme -platform android -data '{"package_name":...}'
//	deplctl quota reset
//
// Configuration is the same conf/global.yaml plus DEPL_ overrides the web
// binary reads.  Results are printed as indented JSON on stdout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yanizio/depl/internal/component"
	"github.com/yanizio/depl/internal/config"
	"github.com/yanizio/depl/internal/database"
	"github.com/yanizio/depl/internal/jsonobj"
	"github.com/yanizio/depl/internal/logger"
	"github.com/yanizio/depl/internal/model"
	"github.com/yanizio/depl/internal/store"
	"github.com/yanizio/depl/internal/vault"
	"github.com/yanizio/depl/internal/workspace"

	_ "github.com/yanizio/depl/components/deeplink"
	_ "github.com/yanizio/depl/components/link"
	_ "github.com/yanizio/depl/components/wellknown"
)

const usage = `usage: deplctl <command> [flags]

commands:
  migrate             create or update the schema
  workspace create    create a workspace and print its keys
  app register        register or update a workspace App
  quota reset         roll over monthly counters that are due`

// lookup is the read side deplctl needs beyond workspace.Service.
type lookup interface {
	WorkspaceBySubdomain(ctx context.Context, sub string) (*model.Workspace, error)
}

// cli carries the wired dependencies so run can be tested without MySQL.
type cli struct {
	ws      *workspace.Service
	lookup  lookup
	migrate func(ctx context.Context) error
	out     io.Writer
}

func main() {
	log := logger.Bootstrap()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	password := cfg.Database.Password
	if cfg.Vault.Enabled {
		vc, err := vault.New(ctx)
		if err != nil {
			log.Fatal("vault client", zap.Error(err))
		}
		if password, err = vc.Resolve(ctx, password); err != nil {
			log.Fatal("resolve database password", zap.Error(err))
		}
	}

	dsn, err := database.DSN(cfg.Database.DSN, password)
	if err != nil {
		log.Fatal("database dsn", zap.Error(err))
	}
	db, err := database.Open(ctx, dsn)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	st := store.New(db)
	c := &cli{
		ws:     workspace.NewService(st),
		lookup: st,
		migrate: func(ctx context.Context) error {
			return database.Migrate(ctx, db, component.Migrations())
		},
		out: os.Stdout,
	}

	if err := c.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "deplctl:", err)
		os.Exit(1)
	}
}

// run dispatches one command line (without the program name).
func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch cmd := args[0]; {
	case cmd == "migrate":
		if err := c.migrate(ctx); err != nil {
			return err
		}
		return c.print(map[string]string{"status": "migrated"})

	case cmd == "workspace" && len(args) > 1 && args[1] == "create":
		return c.createWorkspace(ctx, args[2:])

	case cmd == "app" && len(args) > 1 && args[1] == "register":
		return c.registerApp(ctx, args[2:])

	case cmd == "quota" && len(args) > 1 && args[1] == "reset":
		n, err := c.ws.ResetQuotas(ctx)
		if err != nil {
			return err
		}
		return c.print(map[string]int64{"workspaces_reset": n})
	}
	return fmt.Errorf("unknown command %q\n%s", args[0], usage)
}

func (c *cli) createWorkspace(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("workspace create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "display name")
	sub := fs.String("subdomain", "", "link subdomain")
	desc := fs.String("description", "", "optional description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := c.ws.Create(ctx, workspace.CreateInput{Name: *name, SubDomain: *sub, Description: *desc})
	if err != nil {
		return err
	}
	return c.print(struct {
		*model.Workspace
		APIKey    string `json:"api_key"`
		ClientKey string `json:"client_key"`
	}{ws, ws.APIKey, ws.ClientKey})
}

func (c *cli) registerApp(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("app register", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	sub := fs.String("subdomain", "", "workspace subdomain")
	platform := fs.String("platform", "", "ios or android")
	name := fs.String("name", "", "optional app name")
	data := fs.String("data", "", "platform_data JSON object")
	dataFile := fs.String("data-file", "", "read platform_data from a file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := model.ParsePlatform(*platform)
	if err != nil {
		return err
	}

	raw := []byte(*data)
	if *dataFile != "" {
		if raw, err = os.ReadFile(*dataFile); err != nil {
			return err
		}
	}
	obj, err := jsonobj.Parse(raw)
	if err != nil {
		return fmt.Errorf("platform data: %w", err)
	}

	ws, err := c.lookup.WorkspaceBySubdomain(ctx, *sub)
	if err != nil {
		return fmt.Errorf("workspace %q: %w", *sub, err)
	}

	app, err := c.ws.RegisterApp(ctx, ws, p, *name, obj)
	if err != nil {
		return err
	}
	return c.print(app)
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
