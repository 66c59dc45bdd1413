// cmd/web/main.go
//
// DEPL – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Bootstrap console logger, then load config (.env → YAML → DEPL_ env).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Resolve `vault:` secrets when Vault is enabled.
//
//  4. Open the MySQL pool, optionally apply component migrations.
//
//  5. Build services: store, workspace cache, registry, resolver.
//
//  6. Root router: RequestID → RealIP → Recoverer → Enrich → Security,
//     then /healthz, /metrics, and every registered component.
//
//  7. Optional ForceHTTPS wrapper for known workspace hosts.
//
//  8. Serve until SIGINT / SIGTERM, drain, wait for click goroutines.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/depl/internal/api"
	"github.com/yanizio/depl/internal/component"
	"github.com/yanizio/depl/internal/config"
	"github.com/yanizio/depl/internal/database"
	"github.com/yanizio/depl/internal/logger"
	"github.com/yanizio/depl/internal/middleware"
	"github.com/yanizio/depl/internal/redirect"
	"github.com/yanizio/depl/internal/registry"
	"github.com/yanizio/depl/internal/requestinfo"
	"github.com/yanizio/depl/internal/server"
	"github.com/yanizio/depl/internal/store"
	"github.com/yanizio/depl/internal/vault"
	"github.com/yanizio/depl/internal/workspace"

	_ "github.com/yanizio/depl/components/deeplink"
	_ "github.com/yanizio/depl/components/link"
	_ "github.com/yanizio/depl/components/wellknown"
)

const shutdownGrace = 15 * time.Second

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	boot := logger.Bootstrap()

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal("load config", zap.Error(err))
	}

	log, err := logger.New(logger.Options{
		Root:  cfg.Paths.Root,
		Tee:   runningInTTY(),
		Debug: !cfg.Production(),
	})
	if err != nil {
		boot.Fatal("start logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	api.SetExposeDetails(!cfg.Production())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Secrets ─────────────────────────────────────────────────────
	//
	password := cfg.Database.Password
	if cfg.Vault.Enabled {
		vc, err := vault.New(ctx)
		if err != nil {
			log.Fatalw("vault client", "err", err)
		}
		if password, err = vc.Resolve(ctx, password); err != nil {
			log.Fatalw("resolve database password", "err", err)
		}
	}

	//
	// ── 2.  Database ────────────────────────────────────────────────────
	//
	dsn, err := database.DSN(cfg.Database.DSN, password)
	if err != nil {
		log.Fatalw("database dsn", "err", err)
	}
	db, err := database.OpenWithOptions(ctx, dsn, database.Options{
		MaxOpen:     cfg.Database.MaxOpen,
		MaxIdle:     cfg.Database.MaxIdle,
		PingRetries: 5,
	})
	if err != nil {
		log.Fatalw("connect database", "err", err)
	}
	defer db.Close()
	log.Infow("database online")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, component.Migrations()); err != nil {
			log.Fatalw("migrate", "err", err)
		}
	}

	if err := requestinfo.InitGeo(cfg.GeoIP.CityDB); err != nil {
		log.Warnw("geoip disabled", "path", cfg.GeoIP.CityDB, "err", err)
	}
	defer requestinfo.CloseGeo()

	//
	// ── 3.  Services ────────────────────────────────────────────────────
	//
	st := store.New(db)
	hosts := workspace.NewCache(st.WorkspaceBySubdomain, cfg.Cache.IdleTTL, cfg.Cache.MaxEntries)
	defer hosts.Close()

	env := &component.Services{
		Cfg:       cfg,
		Reg:       registry.New(st, registry.Options{LinkDomain: cfg.App.LinkDomain}),
		WS:        workspace.NewService(st),
		HostCache: hosts,
		Res: redirect.New(st, hosts, redirect.Options{
			LinkDomain:   cfg.App.LinkDomain,
			ClickTimeout: cfg.App.ClickTimeout,
		}),
		AppSrc: st,
	}

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(requestinfo.Enrich, middleware.Security)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		pctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			api.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	if err := component.Mount(r, env); err != nil {
		log.Fatalw("mount components", "err", err)
	}

	var handler http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(func(ctx context.Context, host string) bool {
			return hosts.Known(ctx, host, cfg.App.LinkDomain)
		}, r)
	}

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	if err := server.Run(ctx, server.New(cfg.HTTP.ListenAddr, handler), shutdownGrace); err != nil {
		log.Errorw("http server", "err", err)
	}

	component.Close()
	log.Infow("shutdown complete")
}
