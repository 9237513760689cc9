package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// BackupFormatVersion current backup document format version. Version 1 was
// the bare flat key/value map without an envelope.
const BackupFormatVersion = 2

// BackupDocument a full snapshot of the key-value store
type BackupDocument struct {
	// Version backup document format version
	Version int `json:"version"`

	// Timestamp snapshot creation time
	Timestamp time.Time `json:"timestamp"`

	// Data every stored key and its value. Values which parse as JSON are
	// kept in decoded form; all others are kept as JSON strings.
	Data map[string]json.RawMessage `json:"data"`
}

/*
ParseBackupDocument decode a backup file's content.

Two shapes are accepted: the `{version, timestamp, data}` envelope, and the
legacy bare flat map of storage keys to values. The shape is decided
explicitly by the presence of a top-level `data` field; content matching
neither shape is rejected.

	@param raw []byte - backup file content
	@return the decoded document
*/
func ParseBackupDocument(raw []byte) (BackupDocument, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return BackupDocument{}, fmt.Errorf("backup content is not a JSON object [%w]", err)
	}

	dataRaw, isEnvelope := top["data"]
	if !isEnvelope {
		// Legacy flat map. The whole object is the data map.
		return BackupDocument{Version: 1, Data: top}, nil
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(dataRaw, &data); err != nil {
		return BackupDocument{}, fmt.Errorf("backup 'data' field is not an object [%w]", err)
	}

	parsed := BackupDocument{Version: BackupFormatVersion, Data: data}
	if versionRaw, ok := top["version"]; ok {
		_ = json.Unmarshal(versionRaw, &parsed.Version)
	}
	if timestampRaw, ok := top["timestamp"]; ok {
		// Older app builds wrote epoch numbers here. The timestamp is
		// informational only, so an unparseable one is ignored.
		_ = json.Unmarshal(timestampRaw, &parsed.Timestamp)
	}

	return parsed, nil
}
