package models

import "time"

// LogEntry one recorded user action.
//
// Timestamps are canonically `time.Time`, serialized as RFC3339 strings in
// JSON. Earlier generations of this data stored epoch numbers in one variant
// and ISO strings in another; this implementation does not reproduce the
// split.
type LogEntry struct {
	// ID log entry ID
	ID string `json:"id" validate:"required"`

	// Timestamp entry creation time
	Timestamp time.Time `json:"timestamp"`

	// Action short action category label
	Action string `json:"action" validate:"required"`

	// Details free-text description. Callers must mask the device password
	// before logging command payloads here.
	Details string `json:"details"`

	// Success action outcome
	Success bool `json:"success"`

	// DeviceID owning device for device-scoped partitions. Absent on entries
	// in the legacy global partition.
	DeviceID string `json:"deviceId,omitempty"`
}
