package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// ChangeEventTypeENUMType storage change event type ENUM value type
type ChangeEventTypeENUMType string

const (
	// ChangeEventTypeAddNewKey a new storage key is created
	ChangeEventTypeAddNewKey ChangeEventTypeENUMType = "ADD_NEW_KEY"

	// ChangeEventTypeDeleteKey a storage key is deleted
	ChangeEventTypeDeleteKey ChangeEventTypeENUMType = "DELETE_KEY"

	// ChangeEventTypeClearStore every storage key is removed
	ChangeEventTypeClearStore ChangeEventTypeENUMType = "CLEAR_STORE"

	// ChangeEventTypeRestoreBackup the store is repopulated from a backup
	ChangeEventTypeRestoreBackup ChangeEventTypeENUMType = "RESTORE_BACKUP"

	// ChangeEventTypeLegacyMigration legacy single-device data is migrated
	ChangeEventTypeLegacyMigration ChangeEventTypeENUMType = "LEGACY_MIGRATION"

	// ChangeEventTypeLayoutUpgraded the store layout generation changed
	ChangeEventTypeLayoutUpgraded ChangeEventTypeENUMType = "STORE_LAYOUT_UPGRADED"
)

// ChangeEvent recording of a notable storage level change
type ChangeEvent struct {
	// ID event entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`
	// EventType storage change event type
	EventType ChangeEventTypeENUMType `json:"type" gorm:"column:type;not null" validate:"required,change_event_type"`
	// Metadata a metadata relating to the event
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"column:metadata;default:null"`
	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseMetadata parse the metadata based on the event type
func (e ChangeEvent) ParseMetadata(validator *validator.Validate) (interface{}, error) {
	switch e.EventType {
	// Storage key related change events
	case ChangeEventTypeAddNewKey:
		fallthrough
	case ChangeEventTypeDeleteKey:
		var parsed ChangeEventKeyRelated
		if err := json.Unmarshal(e.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("change event '%s' metadata parse failed [%w]", e.EventType, err)
		}
		return parsed, validator.Struct(&parsed)

	// Backup restore related change events
	case ChangeEventTypeRestoreBackup:
		var parsed ChangeEventRestoreRelated
		if err := json.Unmarshal(e.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("change event '%s' metadata parse failed [%w]", e.EventType, err)
		}
		return parsed, validator.Struct(&parsed)

	// Legacy migration related change events
	case ChangeEventTypeLegacyMigration:
		var parsed ChangeEventMigrationRelated
		if err := json.Unmarshal(e.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("change event '%s' metadata parse failed [%w]", e.EventType, err)
		}
		return parsed, validator.Struct(&parsed)
	}
	return nil, nil
}

// ChangeEventKeyRelated change event metadata related to one storage key
type ChangeEventKeyRelated struct {
	// Key the storage key touched
	Key string `json:"key" validate:"required"`
}

// ChangeEventRestoreRelated change event metadata for a backup restore
type ChangeEventRestoreRelated struct {
	// KeysRestored number of keys successfully written back
	KeysRestored int `json:"keys_restored" validate:"gte=0"`
	// KeysFound number of keys present in the backup document
	KeysFound int `json:"keys_found" validate:"gte=0"`
}

// ChangeEventMigrationRelated change event metadata for a legacy migration
type ChangeEventMigrationRelated struct {
	// Resource the migrated resource
	Resource string `json:"resource" validate:"required,oneof=device users logs settings"`
	// DeviceID the device the legacy data migrated to, when device scoped
	DeviceID string `json:"device_id,omitempty"`
}
