// Package gatelink - local data core for a GSM relay companion app
package gatelink

import (
	"context"
	"fmt"

	"github.com/alwitt/gatelink/db"
	"github.com/alwitt/gatelink/store"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DataStore bundle of every storage controller sharing one underlying
// key-value store. The controllers own disjoint key namespaces.
type DataStore struct {
	// Devices device record CRUD and active-device selection
	Devices store.DeviceRegistry
	// Users per-device authorized caller lists
	Users store.AuthorizedUserStore
	// Logs per-device activity log partitions
	Logs store.ActivityLogStore
	// Settings application level user preferences
	Settings store.SettingsStore
	// Backup whole-store snapshot and restore
	Backup store.BackupEngine
	// KV the shared key-value store adapter
	KV store.KeyValueStore
}

/*
NewDataStore initialize the data store controllers.

Each instance is backed by a SQL database; two instances using the same
database are essentially copies of each other. Table setup stays external,
see db.DefineTables.

	@param ctx context.Context - execution context
	@param dbDialector gorm.Dialector - GORM dialector
	@param dbLogLevel logger.LogLevel - SQL log level
	@returns new data store instance
*/
func NewDataStore(
	ctx context.Context, dbDialector gorm.Dialector, dbLogLevel logger.LogLevel,
) (*DataStore, error) {
	// Prepare persistence
	persistence, err := db.NewConnection(dbDialector, dbLogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized persistence client [%w]", err)
	}

	kv, err := store.NewKeyValueStore(ctx, persistence)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized key-value store [%w]", err)
	}

	devices, err := store.NewDeviceRegistry(ctx, persistence, kv)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized device registry [%w]", err)
	}

	users, err := store.NewAuthorizedUserStore(ctx, persistence, kv)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized authorized user store [%w]", err)
	}

	logs, err := store.NewActivityLogStore(ctx, persistence, kv)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized activity log store [%w]", err)
	}

	settings, err := store.NewSettingsStore(ctx, persistence, kv)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized settings store [%w]", err)
	}

	backup, err := store.NewBackupEngine(ctx, persistence, kv)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized backup engine [%w]", err)
	}

	return &DataStore{
		Devices:  devices,
		Users:    users,
		Logs:     logs,
		Settings: settings,
		Backup:   backup,
		KV:       kv,
	}, nil
}
