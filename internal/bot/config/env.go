package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays configuration from environment variables. Unset or
// malformed values leave the current Config field untouched.
//
// Recognized variables:
//
//	BOT_TOKEN, OWNER_ID, CHANNEL_ID, ADMINS,
//	FORCE_SUB1..FORCE_SUBn (consecutive, stops at the first gap),
//	BUTTONS_PER_ROW, BUTTONS_JOIN_TEXT,
//	START_MESSAGE, FORCE_SUB_MESSAGE,
//	STORAGE_BACKEND, SQLITE_PATH, MONGO_URI, MONGO_DB,
//	CODE_LENGTH, DELIVERY_RETRIES, REQUEST_TIMEOUT (duration, e.g. "30s")
func parseEnv(config *Config) {
	setString(&config.BotToken, "BOT_TOKEN")
	setInt64(&config.OwnerID, "OWNER_ID")
	setInt64(&config.ChannelID, "CHANNEL_ID")

	if v := getenv("ADMINS"); v != "" {
		config.Admins = parseIDList(v)
	}

	if targets := collectForceSubTargets(); len(targets) > 0 {
		config.ForceSubTargets = targets
	}

	setInt(&config.ButtonsPerRow, "BUTTONS_PER_ROW")
	setString(&config.JoinText, "BUTTONS_JOIN_TEXT")
	setString(&config.StartMessage, "START_MESSAGE")
	setString(&config.ForceSubMessage, "FORCE_SUB_MESSAGE")

	if v := getenv("STORAGE_BACKEND"); v != "" {
		config.StorageBackend = strings.ToLower(v)
	}
	setString(&config.SQLitePath, "SQLITE_PATH")
	setString(&config.MongoURI, "MONGO_URI")
	setString(&config.MongoDB, "MONGO_DB")

	setInt(&config.CodeLength, "CODE_LENGTH")

	if v := getenv("DELIVERY_RETRIES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.DeliveryRetries = n
		}
	}
	if v := getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.RequestTimeout = d
		}
	}
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func setString(dst *string, name string) {
	if v := getenv(name); v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) {
	if v := getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, name string) {
	if v := getenv(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

// parseIDList accepts comma- or whitespace-separated numeric ids and skips
// anything that does not parse.
func parseIDList(raw string) []int64 {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		if id, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// collectForceSubTargets reads FORCE_SUB1, FORCE_SUB2, ... until the first
// unset variable.
func collectForceSubTargets() []string {
	var targets []string
	for i := 1; ; i++ {
		v := getenv(fmt.Sprintf("FORCE_SUB%d", i))
		if v == "" {
			break
		}
		targets = append(targets, v)
	}
	return targets
}
