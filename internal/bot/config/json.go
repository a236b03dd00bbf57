package config

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/fsubgate/internal/flagx"
)

// duration allows JSON duration fields to be given either as a string such
// as "30s" or as integer nanoseconds.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration value")
	}
}

// JsonConfig is the intermediate DTO for reading a JSON configuration file.
// After unmarshalling, set fields are copied into the runtime Config.
type JsonConfig struct {
	BotToken        *string   `json:"bot_token"`
	OwnerID         *int64    `json:"owner_id"`
	ChannelID       *int64    `json:"channel_id"`
	Admins          []int64   `json:"admins"`
	ForceSubTargets []string  `json:"force_sub_targets"`
	ButtonsPerRow   *int      `json:"buttons_per_row"`
	JoinText        *string   `json:"join_text"`
	StartMessage    *string   `json:"start_message"`
	ForceSubMessage *string   `json:"force_sub_message"`
	StorageBackend  *string   `json:"storage_backend"`
	SQLitePath      *string   `json:"sqlite_path"`
	MongoURI        *string   `json:"mongo_uri"`
	MongoDB         *string   `json:"mongo_db"`
	CodeLength      *int      `json:"code_length"`
	DeliveryRetries *uint64   `json:"delivery_retries"`
	RequestTimeout  *duration `json:"request_timeout"`
}

// parseJson loads configuration from the JSON file named by the -c/-config
// flag, if any. Pointer fields distinguish "absent" from zero values, so a
// partial file overrides only what it mentions. An unreadable or invalid
// file panics: a config file that was asked for but cannot be used is
// startup-fatal.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.BotToken != nil {
		config.BotToken = *c.BotToken
	}
	if c.OwnerID != nil {
		config.OwnerID = *c.OwnerID
	}
	if c.ChannelID != nil {
		config.ChannelID = *c.ChannelID
	}
	if c.Admins != nil {
		config.Admins = c.Admins
	}
	if c.ForceSubTargets != nil {
		config.ForceSubTargets = c.ForceSubTargets
	}
	if c.ButtonsPerRow != nil {
		config.ButtonsPerRow = *c.ButtonsPerRow
	}
	if c.JoinText != nil {
		config.JoinText = *c.JoinText
	}
	if c.StartMessage != nil {
		config.StartMessage = *c.StartMessage
	}
	if c.ForceSubMessage != nil {
		config.ForceSubMessage = *c.ForceSubMessage
	}
	if c.StorageBackend != nil {
		config.StorageBackend = strings.ToLower(*c.StorageBackend)
	}
	if c.SQLitePath != nil {
		config.SQLitePath = *c.SQLitePath
	}
	if c.MongoURI != nil {
		config.MongoURI = *c.MongoURI
	}
	if c.MongoDB != nil {
		config.MongoDB = *c.MongoDB
	}
	if c.CodeLength != nil {
		config.CodeLength = *c.CodeLength
	}
	if c.DeliveryRetries != nil {
		config.DeliveryRetries = *c.DeliveryRetries
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
}
