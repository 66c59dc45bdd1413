// internal/config/model.go
//
// Typed configuration model for DEPL.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                        – dotenv values,
//   • `conf/global.yaml`                     – primary static file,
//   • `DEPL_`-prefixed environment overrides – highest precedence.
//
// String values of the form `vault:<mount/path>#<key>` are resolved by
// `cmd/web` through internal/vault after Load returns, so only the
// Database password is expected to carry one today.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Durations are Go duration strings ("1s", "15m").

package config

import "time"

//
// App section
//

// App holds service-wide behaviour.
type App struct {
	// Env is "development" or "production".  Production hides error
	// details from API responses.
	Env string `koanf:"env" validate:"required,oneof=development production"`

	// LinkDomain is the parent of every workspace host, e.g. "depl.link".
	LinkDomain string `koanf:"link_domain" validate:"required,fqdn"`

	// RedirectDelay is how long the holding page waits before navigating.
	RedirectDelay time.Duration `koanf:"redirect_delay" validate:"gte=0"`

	// ClickTimeout bounds the detached click-counter update.
	ClickTimeout time.Duration `koanf:"click_timeout" validate:"gt=0"`
}

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The DSN (without password) is kept in YAML so operators can tweak host,
// port, or flags without touching Vault.  The password is usually a
// `vault:` reference injected at runtime.
type Database struct {
	DSN         string `koanf:"dsn"      validate:"required"`
	Password    string `koanf:"password"`
	MaxOpen     int    `koanf:"max_open" validate:"gte=0"`
	MaxIdle     int    `koanf:"max_idle" validate:"gte=0"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

//
// Vault section
//

// Vault toggles secret resolution.  Address and token come from the
// standard VAULT_ADDR / VAULT_TOKEN variables.
type Vault struct {
	Enabled bool `koanf:"enabled"`
}

//
// GeoIP section
//

// GeoIP points at an optional MaxMind City database.  Empty disables
// geolocation.
type GeoIP struct {
	CityDB string `koanf:"city_db"`
}

//
// Cache section
//

// Cache tunes the workspace read-through cache.
type Cache struct {
	IdleTTL    time.Duration `koanf:"idle_ttl"    validate:"gt=0"`
	MaxEntries int           `koanf:"max_entries" validate:"gte=0"`
}

//
// RateLimit section
//

// RateLimit applies to /api per credential (or client IP).  RPS 0
// disables limiting.
type RateLimit struct {
	RPS   float64 `koanf:"rps"   validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // DEPL_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	App       App       `koanf:"app"`
	HTTP      HTTP      `koanf:"http"`
	Database  Database  `koanf:"database"`
	Vault     Vault     `koanf:"vault"`
	GeoIP     GeoIP     `koanf:"geoip"`
	Cache     Cache     `koanf:"cache"`
	RateLimit RateLimit `koanf:"ratelimit"`
	Paths     Paths     `koanf:"-"`
}

// Production reports whether the service runs with App.Env=production.
func (c *Config) Production() bool { return c.App.Env == "production" }
