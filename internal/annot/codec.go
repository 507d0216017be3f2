package annot

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeSnapshot serializes a snapshot as base64-wrapped JSON, the format
// the sync backend stores and returns.
func EncodeSnapshot(s Snapshot) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeSnapshot is the inverse of EncodeSnapshot. Missing categories come
// back as empty maps; only undecodable input is an error.
func DecodeSnapshot(data string) (Snapshot, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return s.Normalize(), nil
}
