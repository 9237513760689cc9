package db

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/gatelink/models"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CommonListEntryQueryFilter common query filter when listing data entries
type CommonListEntryQueryFilter struct {
	Limit  *int
	Offset *int
}

// ChangeEventQueryFilter storage change event query filter conditions
type ChangeEventQueryFilter struct {
	CommonListEntryQueryFilter
	// EventTypes the specific event types to query for
	EventTypes []models.ChangeEventTypeENUMType
	// EventsAfter filter for events after this timestamp
	EventsAfter *time.Time
	// EventsBefore filter for events before this timestamp
	EventsBefore *time.Time
}

// Database the database handle to interacting with the data base
type Database interface {
	// ------------------------------------------------------------------------------------
	// Storage change events

	/*
		ListChangeEvents list captured storage change events

			@param ctx context.Context - execution context
			@param filters ChangeEventQueryFilter - entry listing filter
			@return list of change events
	*/
	ListChangeEvents(
		ctx context.Context, filters ChangeEventQueryFilter,
	) ([]models.ChangeEvent, error)

	/*
		RecordBackupRestore record a backup restore change event

			@param ctx context.Context - execution context
			@param keysRestored int - number of keys successfully written back
			@param keysFound int - number of keys present in the backup document
	*/
	RecordBackupRestore(ctx context.Context, keysRestored int, keysFound int) error

	/*
		RecordLegacyMigration record a legacy data migration change event

			@param ctx context.Context - execution context
			@param resource string - the migrated resource (device, users, logs, settings)
			@param deviceID string - target device when the resource is device scoped
	*/
	RecordLegacyMigration(ctx context.Context, resource string, deviceID string) error

	// ------------------------------------------------------------------------------------
	// Store parameters

	/*
		GetStoreParams fetch the global singleton store parameter entry

			@param ctx context.Context - execution context
			@returns the entry
	*/
	GetStoreParams(ctx context.Context) (models.StoreParams, error)

	/*
		MarkStoreMultiDevice mark the store as using the multi-device layout

			@param ctx context.Context - execution context
	*/
	MarkStoreMultiDevice(ctx context.Context) error

	// ------------------------------------------------------------------------------------
	// Key-value entries

	/*
		SetKeyValue record a key-value pair, creating or replacing the key

			@param ctx context.Context - execution context
			@param key string - storage key
			@param value string - value to store
			@returns the stored entry
	*/
	SetKeyValue(ctx context.Context, key string, value string) (models.KeyValue, error)

	/*
		GetKeyValue fetch one key-value pair

			@param ctx context.Context - execution context
			@param key string - storage key
			@returns the stored entry
	*/
	GetKeyValue(ctx context.Context, key string) (models.KeyValue, error)

	/*
		GetKeyValues fetch multiple key-value pairs at once

			@param ctx context.Context - execution context
			@param keys []string - storage keys
			@returns the stored entries which exist, in key order
	*/
	GetKeyValues(ctx context.Context, keys []string) ([]models.KeyValue, error)

	/*
		ListAllKeys list every stored key

			@param ctx context.Context - execution context
			@returns all keys in lexical order
	*/
	ListAllKeys(ctx context.Context) ([]string, error)

	/*
		DeleteKeyValue delete a key-value pair

			@param ctx context.Context - execution context
			@param key string - storage key
	*/
	DeleteKeyValue(ctx context.Context, key string) error

	/*
		ClearKeyValues delete every stored key-value pair

			@param ctx context.Context - execution context
			@returns number of entries removed
	*/
	ClearKeyValues(ctx context.Context) (int64, error)
}

// databaseImpl implements Database
type databaseImpl struct {
	goutils.Component
	db        *gorm.DB
	validator *validator.Validate
}

// newDatabase define a new database client
func newDatabase(_ context.Context, sqlClient *gorm.DB) (Database, error) {
	logTags := log.Fields{"package": "gatelink", "module": "db", "component": "db-client"}

	instance := &databaseImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db:        sqlClient,
		validator: validator.New(),
	}

	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}

	return instance, nil
}
