// Package session keeps in-progress wizard state between requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/financing-wizard/internal/proposal"
	"github.com/iwvelando/financing-wizard/pkg/constants"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session is one applicant's progress through the wizard.
type Session struct {
	ID         string          `json:"id"`
	Step       int             `json:"step"`
	Record     proposal.Record `json:"record"`
	Completed  bool            `json:"completed"`
	ProposalID string          `json:"proposalId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Store persists sessions. Implementations expire idle sessions after their TTL.
type Store interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Config selects and configures a session backend.
type Config struct {
	Driver   string `mapstructure:"driver"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      string `mapstructure:"ttl"`
}

// ParseTTL returns the configured TTL, falling back to the default.
func (c Config) ParseTTL() (time.Duration, error) {
	value := c.TTL
	if value == "" {
		value = constants.DefaultSessionTTL
	}
	ttl, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid session ttl %q: %w", value, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("session ttl must be positive, got %s", value)
	}
	return ttl, nil
}

// Open builds the configured session store.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl, err := cfg.ParseTTL()
	if err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case constants.SessionDriverMemory, "":
		return NewMemoryStore(ttl, logger), nil
	case constants.SessionDriverRedis:
		return OpenRedis(ctx, cfg, ttl, logger)
	}
	return nil, fmt.Errorf("unsupported session driver %q", cfg.Driver)
}
