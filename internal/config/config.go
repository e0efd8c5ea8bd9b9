// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/financing-wizard/internal/proposal"
	"github.com/iwvelando/financing-wizard/internal/session"
	"github.com/iwvelando/financing-wizard/internal/storage"
	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for financing-wizard.
type Configuration struct {
	Rules     RulesConfig     `mapstructure:"rules" yaml:"rules,omitempty"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging,omitempty"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server,omitempty"`
	Storage   storage.Config  `mapstructure:"storage" yaml:"storage,omitempty"`
	Sessions  session.Config  `mapstructure:"sessions" yaml:"sessions,omitempty"`
	Documents DocumentsConfig `mapstructure:"documents" yaml:"documents,omitempty"`
	Admin     AdminConfig     `mapstructure:"admin" yaml:"admin,omitempty"`
}

// RulesConfig overrides the offered terms and the minimum down payment. The
// interest rate is fixed.
type RulesConfig struct {
	TermOptions         []int  `mapstructure:"termOptions" yaml:"termOptions,omitempty"`
	MinDownPaymentRatio string `mapstructure:"minDownPaymentRatio" yaml:"minDownPaymentRatio,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// ServerConfig holds the HTTP listener options. TrustProxy takes the client
// address from X-Forwarded-For / X-Real-IP and must only be set behind a
// proxy that overwrites those headers.
type ServerConfig struct {
	Address       string          `mapstructure:"address" yaml:"address,omitempty"`
	MaxUploadSize string          `mapstructure:"maxUploadSize" yaml:"maxUploadSize,omitempty"`
	TrustProxy    bool            `mapstructure:"trustProxy" yaml:"trustProxy,omitempty"`
	RateLimit     RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit,omitempty"`
}

// RateLimitConfig bounds signing and admin requests per client.
type RateLimitConfig struct {
	Requests int    `mapstructure:"requests" yaml:"requests,omitempty"`
	Window   string `mapstructure:"window" yaml:"window,omitempty"`
}

// DocumentsConfig selects the rendered proposal format and signs the
// download links handed to applicants. An empty LinkSecret is replaced by a
// random key at startup.
type DocumentsConfig struct {
	Format     string `mapstructure:"format" yaml:"format,omitempty"` // text, csv, yaml
	LinkSecret string `mapstructure:"linkSecret" yaml:"linkSecret,omitempty"`
	LinkTTL    string `mapstructure:"linkTTL" yaml:"linkTTL,omitempty"`
}

// ParseLinkTTL returns how long download links stay valid, falling back to
// the default.
func (d DocumentsConfig) ParseLinkTTL() (time.Duration, error) {
	value := d.LinkTTL
	if value == "" {
		value = constants.DefaultDocumentLinkTTL
	}
	ttl, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid document link ttl %q: %w", value, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("document link ttl must be positive, got %s", value)
	}
	return ttl, nil
}

// AdminConfig holds the admin panel credentials. Admin routes are disabled
// while PasswordHash is empty.
type AdminConfig struct {
	Username     string `mapstructure:"username" yaml:"username,omitempty"`
	PasswordHash string `mapstructure:"passwordHash" yaml:"passwordHash,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("rules.termOptions", constants.DefaultTermOptions)
	v.SetDefault("rules.minDownPaymentRatio", constants.DefaultMinDownPaymentRatio)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.trustProxy", false)
	v.SetDefault("server.maxUploadSize", fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes))
	v.SetDefault("server.rateLimit.requests", constants.DefaultRateLimitRequests)
	v.SetDefault("server.rateLimit.window", constants.DefaultRateLimitWindow)
	v.SetDefault("storage.driver", constants.StorageDriverSQLite)
	v.SetDefault("storage.dsn", constants.DefaultSQLiteDSN)
	v.SetDefault("storage.migrate", true)
	v.SetDefault("sessions.driver", constants.SessionDriverMemory)
	v.SetDefault("sessions.addr", "")
	v.SetDefault("sessions.password", "")
	v.SetDefault("sessions.db", 0)
	v.SetDefault("sessions.ttl", constants.DefaultSessionTTL)
	v.SetDefault("documents.format", constants.DocumentFormatText)
	v.SetDefault("documents.linkSecret", "")
	v.SetDefault("documents.linkTTL", constants.DefaultDocumentLinkTTL)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.passwordHash", "")
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults plus any FINWIZ_*
// environment overrides.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// BusinessRules builds the validation rules from the configuration.
func (c *Configuration) BusinessRules() (proposal.Rules, error) {
	rules := proposal.DefaultRules()

	if len(c.Rules.TermOptions) > 0 {
		for _, term := range c.Rules.TermOptions {
			if term <= 0 {
				return proposal.Rules{}, fmt.Errorf("term options must be positive, got %d", term)
			}
		}
		rules.TermOptions = append([]int(nil), c.Rules.TermOptions...)
	}

	if c.Rules.MinDownPaymentRatio != "" {
		ratio, err := decimal.NewFromString(c.Rules.MinDownPaymentRatio)
		if err != nil {
			return proposal.Rules{}, fmt.Errorf("invalid minimum down payment ratio %q: %w", c.Rules.MinDownPaymentRatio, err)
		}
		if ratio.IsNegative() {
			return proposal.Rules{}, fmt.Errorf("minimum down payment ratio cannot be negative, got %s", ratio)
		}
		rules.MinDownPaymentRatio = ratio
	}
	return rules, nil
}
