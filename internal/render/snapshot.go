package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ReadSnapshot loads the snapshot published into dir.
func ReadSnapshot(dir string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, SnapshotFile))
	if err != nil {
		return nil, fmt.Errorf("ReadSnapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

// DecodeSnapshot parses snapshot bytes.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("DecodeSnapshot: %w", err)
	}
	return &s, nil
}
