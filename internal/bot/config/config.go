// Package config handles configuration for the bot, layered as
// defaults → optional JSON file → environment variables → command-line
// flags. Invalid required settings are startup-fatal.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/fsubgate/internal/bot/storage"
	"github.com/dmitrijs2005/fsubgate/internal/common"
)

// Config holds runtime settings for the bot.
//
// Fields:
//   - BotToken: Telegram bot credential.
//   - OwnerID: user id of the bot owner; always an admin.
//   - ChannelID: the private archive channel artifacts are copied into.
//   - Admins: user ids allowed to ingest media.
//   - ForceSubTargets: chats a user must belong to before delivery.
//   - ButtonsPerRow / JoinText: gate prompt layout.
//   - StartMessage / ForceSubMessage: HTML message templates.
//   - StorageBackend: "sqlite" or "mongo", plus backend connection settings.
//   - CodeLength: generated short-code length.
//   - DeliveryRetries / RetryBackoff: transient-failure retry policy.
//   - RequestTimeout: per-call timeout for Telegram API requests.
type Config struct {
	BotToken        string
	OwnerID         int64
	ChannelID       int64
	Admins          []int64
	ForceSubTargets []string
	ButtonsPerRow   int
	JoinText        string
	StartMessage    string
	ForceSubMessage string
	StorageBackend  string
	SQLitePath      string
	MongoURI        string
	MongoDB         string
	CodeLength      int
	DeliveryRetries uint64
	RetryBackoff    time.Duration
	RequestTimeout  time.Duration
}

// LoadDefaults populates Config with development defaults. Credentials and
// chat ids have no sensible defaults and must come from env or flags.
func (c *Config) LoadDefaults() {
	c.ButtonsPerRow = 3
	c.JoinText = "Join"
	c.StartMessage = "<b>Hi, {mention}!</b>"
	c.ForceSubMessage = "<b>You need to join the required channels first.</b>"
	c.StorageBackend = storage.BackendSQLite
	c.SQLitePath = "data.db"
	c.MongoDB = "fsub"
	c.CodeLength = 10
	c.DeliveryRetries = 3
	c.RetryBackoff = 500 * time.Millisecond
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, environment variables, and finally
// command-line flags. The result is validated before use.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the required settings and normalizes bounded ones.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("%w: bot token is required", common.ErrorConfigInvalid)
	}
	if c.OwnerID == 0 {
		return fmt.Errorf("%w: owner id is required", common.ErrorConfigInvalid)
	}
	if c.ChannelID == 0 {
		return fmt.Errorf("%w: archive channel id is required", common.ErrorConfigInvalid)
	}

	switch c.StorageBackend {
	case storage.BackendSQLite:
	case storage.BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: mongo URI is required for the mongo backend", common.ErrorConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", common.ErrorConfigInvalid, c.StorageBackend)
	}

	if c.CodeLength <= 0 {
		return fmt.Errorf("%w: code length must be positive", common.ErrorConfigInvalid)
	}

	if c.ButtonsPerRow < 1 {
		c.ButtonsPerRow = 1
	}
	if c.ButtonsPerRow > 8 {
		c.ButtonsPerRow = 8
	}

	return nil
}

// IsAdmin reports whether userID may use the ingest path. The owner is
// always an admin.
func (c *Config) IsAdmin(userID int64) bool {
	if userID == c.OwnerID {
		return true
	}
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}
