// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `Load` calls `validateStruct` immediately after it unmarshals the merged
// Koanf tree into a `Config`.  Any validation error aborts startup, so the
// binary never runs with partial or malformed configuration.
//
// Notes
// -----
//   • One rule beyond the built-ins: a `vault:` reference is only legal
//     when vault.enabled is true.

package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		return err
	}
	if !c.Vault.Enabled && strings.HasPrefix(c.Database.Password, "vault:") {
		return fmt.Errorf("config: database.password is a vault reference but vault.enabled is false")
	}
	return nil
}
