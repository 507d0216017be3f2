package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerEndpointURL)
	assert.Equal(t, "versesync.db", c.DatabaseDSN)
	assert.Equal(t, "jayaapp", c.AppID)
	assert.Equal(t, 30*time.Second, c.PollInterval)
	assert.Equal(t, 2*time.Second, c.SyncDebounce)
	assert.Equal(t, 90*24*time.Hour, c.TombstoneRetention)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerEndpointURL)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
}
