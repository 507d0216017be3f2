package config

import (
	"time"

	"github.com/trueheartapps/versesync/internal/common"
)

// Config holds runtime settings for the versesync CLI.
//
// Fields:
//   - ServerEndpointURL: base URL of the sync backend REST API.
//   - DatabaseDSN: sqlite DSN of the local annotation store.
//   - AppID: application identifier sent with every sync request.
//   - PollInterval: period of the background sync loop.
//   - SyncDebounce: how long a scheduled sync waits for further edits.
//   - TombstoneRetention: how long deletion events stay replayable.
type Config struct {
	ServerEndpointURL  string
	DatabaseDSN        string
	AppID              string
	PollInterval       time.Duration
	SyncDebounce       time.Duration
	TombstoneRetention time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://127.0.0.1:8080"
	c.DatabaseDSN = "versesync.db"
	c.AppID = common.DefaultAppID
	c.PollInterval = 30 * time.Second
	c.SyncDebounce = 2 * time.Second
	c.TombstoneRetention = 90 * 24 * time.Hour
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
