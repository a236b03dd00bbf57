package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withArgs(t *testing.T, args []string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"bot"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestParseFlags_Overlay(t *testing.T) {
	withArgs(t, []string{"-s", "Mongo", "-m", "mongodb://localhost:27017", "-n", "testdb", "-f", "bot.db", "-l", "12"})

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "mongo", cfg.StorageBackend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "testdb", cfg.MongoDB)
	assert.Equal(t, "bot.db", cfg.SQLitePath)
	assert.Equal(t, 12, cfg.CodeLength)
}

func TestParseFlags_NoFlagsKeepsDefaults(t *testing.T) {
	withArgs(t, nil)

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "sqlite", cfg.StorageBackend)
	assert.Equal(t, "data.db", cfg.SQLitePath)
	assert.Equal(t, 10, cfg.CodeLength)
}

func TestParseFlags_IgnoresForeignFlags(t *testing.T) {
	withArgs(t, []string{"-x", "whatever", "-f", "bot.db"})

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "bot.db", cfg.SQLitePath)
}
