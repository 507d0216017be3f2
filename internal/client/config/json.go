package config

import (
	"encoding/json"
	"os"

	"github.com/trueheartapps/versesync/internal/flagx"
	"github.com/trueheartapps/versesync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "30s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointURL  string         `json:"server_endpoint_url"`
	DatabaseDSN        string         `json:"database_dsn"`
	AppID              string         `json:"app_id"`
	PollInterval       timex.Duration `json:"poll_interval"`
	SyncDebounce       timex.Duration `json:"sync_debounce"`
	TombstoneRetention timex.Duration `json:"tombstone_retention"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies known fields into the provided Config; zero-valued fields in
//     the file leave the existing Config values alone.
//   - Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointURL != "" {
		cfg.ServerEndpointURL = jc.ServerEndpointURL
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.AppID != "" {
		cfg.AppID = jc.AppID
	}
	if jc.PollInterval.Duration != 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.SyncDebounce.Duration != 0 {
		cfg.SyncDebounce = jc.SyncDebounce.Duration
	}
	if jc.TombstoneRetention.Duration != 0 {
		cfg.TombstoneRetention = jc.TombstoneRetention.Duration
	}
}
