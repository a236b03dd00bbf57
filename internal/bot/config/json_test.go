package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJson_FullOverlay(t *testing.T) {
	path := writeConfigFile(t, `{
		"bot_token": "123:abc",
		"owner_id": 42,
		"channel_id": -1005,
		"admins": [7, 8],
		"force_sub_targets": ["@first"],
		"buttons_per_row": 2,
		"join_text": "Join us",
		"storage_backend": "Mongo",
		"mongo_uri": "mongodb://localhost:27017",
		"mongo_db": "testdb",
		"code_length": 8,
		"delivery_retries": 5,
		"request_timeout": "10s"
	}`)
	withArgs(t, []string{"-c", path})

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, int64(42), cfg.OwnerID)
	assert.Equal(t, int64(-1005), cfg.ChannelID)
	assert.Equal(t, []int64{7, 8}, cfg.Admins)
	assert.Equal(t, []string{"@first"}, cfg.ForceSubTargets)
	assert.Equal(t, 2, cfg.ButtonsPerRow)
	assert.Equal(t, "Join us", cfg.JoinText)
	assert.Equal(t, "mongo", cfg.StorageBackend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "testdb", cfg.MongoDB)
	assert.Equal(t, 8, cfg.CodeLength)
	assert.Equal(t, uint64(5), cfg.DeliveryRetries)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestParseJson_PartialFileOverridesOnlyMentionedFields(t *testing.T) {
	path := writeConfigFile(t, `{"sqlite_path": "custom.db"}`)
	withArgs(t, []string{"-config", path})

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "custom.db", cfg.SQLitePath)
	assert.Equal(t, "sqlite", cfg.StorageBackend)
	assert.Equal(t, 10, cfg.CodeLength)
}

func TestParseJson_NoFlagNoFile(t *testing.T) {
	withArgs(t, nil)

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "data.db", cfg.SQLitePath)
}

func TestParseJson_InvalidFilePanics(t *testing.T) {
	path := writeConfigFile(t, `{not json`)
	withArgs(t, []string{"-c", path})

	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Panics(t, func() { parseJson(cfg) })
}

func TestDuration_UnmarshalForms(t *testing.T) {
	var d duration

	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Duration)

	require.NoError(t, d.UnmarshalJSON([]byte(`1000000000`)))
	assert.Equal(t, time.Second, d.Duration)

	require.Error(t, d.UnmarshalJSON([]byte(`"not-a-duration"`)))
	require.Error(t, d.UnmarshalJSON([]byte(`true`)))
}
