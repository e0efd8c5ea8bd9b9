package config

import (
	"fmt"
	"time"

	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/iwvelando/financing-wizard/pkg/validation"
	"golang.org/x/crypto/bcrypt"
)

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if _, err := c.BusinessRules(); err != nil {
		warnings = append(warnings, fmt.Sprintf("rules: %v; serve and simulate will refuse to start", err))
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("logging: unknown level %q", c.Logging.Level))
	}

	switch c.Storage.Driver {
	case constants.StorageDriverMemory:
		warnings = append(warnings, "storage: memory driver loses proposals on restart")
	case constants.StorageDriverSQLite:
	case constants.StorageDriverPostgres:
		if c.Storage.DSN == "" {
			warnings = append(warnings, "storage: postgres driver requires a dsn")
		}
	default:
		warnings = append(warnings, fmt.Sprintf("storage: unknown driver %q", c.Storage.Driver))
	}

	switch c.Sessions.Driver {
	case constants.SessionDriverMemory:
	case constants.SessionDriverRedis:
		if c.Sessions.Addr == "" {
			warnings = append(warnings, "sessions: redis driver requires an addr")
		}
	default:
		warnings = append(warnings, fmt.Sprintf("sessions: unknown driver %q", c.Sessions.Driver))
	}
	if _, err := c.Sessions.ParseTTL(); err != nil {
		warnings = append(warnings, fmt.Sprintf("sessions: %v", err))
	}

	if err := validation.ValidateDocumentFormat(c.Documents.Format); err != nil {
		warnings = append(warnings, fmt.Sprintf("documents: %v", err))
	}
	if _, err := c.Documents.ParseLinkTTL(); err != nil {
		warnings = append(warnings, fmt.Sprintf("documents: %v", err))
	}
	if c.Documents.LinkSecret == "" {
		warnings = append(warnings, "documents: no link secret configured; download links stop working after a restart")
	}

	if c.Server.RateLimit.Requests <= 0 {
		warnings = append(warnings, "server: rate limiting is disabled")
	}
	if _, err := time.ParseDuration(c.Server.RateLimit.Window); err != nil {
		warnings = append(warnings, fmt.Sprintf("server: invalid rate limit window %q", c.Server.RateLimit.Window))
	}

	if c.Admin.PasswordHash == "" {
		warnings = append(warnings, "admin: no password hash configured; admin routes are disabled")
	} else if _, err := bcrypt.Cost([]byte(c.Admin.PasswordHash)); err != nil {
		warnings = append(warnings, "admin: password hash is not a bcrypt hash")
	}

	return warnings
}
