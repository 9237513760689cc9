package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/alwitt/gatelink/db"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"gorm.io/gorm"
)

// KeyValueStore thin adapter over the persisted string key / string value
// storage primitive. Every higher level controller owns a disjoint key
// namespace within this store.
type KeyValueStore interface {
	/*
		Get read the value of a key

			@param ctx context.Context - execution context
			@param key string - storage key
			@param activeDBClient Database - existing database transaction
			@returns the value, and whether the key exists. A missing key is
			    not an error.
	*/
	Get(ctx context.Context, key string, activeDBClient db.Database) (string, bool, error)

	/*
		Set write the value of a key, creating it if missing

			@param ctx context.Context - execution context
			@param key string - storage key
			@param value string - value to store
			@param activeDBClient Database - existing database transaction
	*/
	Set(ctx context.Context, key string, value string, activeDBClient db.Database) error

	/*
		Remove delete a key

			@param ctx context.Context - execution context
			@param key string - storage key
			@param activeDBClient Database - existing database transaction
	*/
	Remove(ctx context.Context, key string, activeDBClient db.Database) error

	/*
		GetAll read the values of multiple keys at once

			@param ctx context.Context - execution context
			@param keys []string - storage keys
			@param activeDBClient Database - existing database transaction
			@returns value by key for the keys which exist
	*/
	GetAll(ctx context.Context, keys []string, activeDBClient db.Database) (map[string]string, error)

	/*
		ListKeys list every stored key

			@param ctx context.Context - execution context
			@param activeDBClient Database - existing database transaction
			@returns all keys in lexical order
	*/
	ListKeys(ctx context.Context, activeDBClient db.Database) ([]string, error)

	/*
		Clear delete every stored key

			@param ctx context.Context - execution context
			@param activeDBClient Database - existing database transaction
			@returns number of keys removed
	*/
	Clear(ctx context.Context, activeDBClient db.Database) (int64, error)
}

// keyValueStore implements KeyValueStore
type keyValueStore struct {
	goutils.Component

	persistence db.Client
}

/*
NewKeyValueStore define new key-value store adapter

	@param ctx context.Context - execution context
	@param persistence db.Client - persistence layer client
	@returns store instance
*/
func NewKeyValueStore(_ context.Context, persistence db.Client) (KeyValueStore, error) {
	logTags := log.Fields{"module": "store", "component": "key-value-store"}

	instance := &keyValueStore{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: persistence,
	}

	return instance, nil
}

/*
Get read the value of a key

	@param ctx context.Context - execution context
	@param key string - storage key
	@param activeDBClient Database - existing database transaction
	@returns the value, and whether the key exists
*/
func (s *keyValueStore) Get(
	ctx context.Context, key string, activeDBClient db.Database,
) (string, bool, error) {
	var value string
	found := false

	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			entry, err := dbClient.GetKeyValue(dbCtx, key)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return err
			}
			value = entry.Value
			found = true
			return nil
		},
	); dbErr != nil {
		return "", false, fmt.Errorf("failed to read key '%s' [%w]", key, dbErr)
	}

	return value, found, nil
}

/*
Set write the value of a key, creating it if missing

	@param ctx context.Context - execution context
	@param key string - storage key
	@param value string - value to store
	@param activeDBClient Database - existing database transaction
*/
func (s *keyValueStore) Set(
	ctx context.Context, key string, value string, activeDBClient db.Database,
) error {
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			_, err := dbClient.SetKeyValue(dbCtx, key, value)
			return err
		},
	); dbErr != nil {
		return fmt.Errorf("failed to write key '%s' [%w]", key, dbErr)
	}

	return nil
}

/*
Remove delete a key

	@param ctx context.Context - execution context
	@param key string - storage key
	@param activeDBClient Database - existing database transaction
*/
func (s *keyValueStore) Remove(
	ctx context.Context, key string, activeDBClient db.Database,
) error {
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			if err := dbClient.DeleteKeyValue(dbCtx, key); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// Removing a missing key is a NOOP
					return nil
				}
				return err
			}
			return nil
		},
	); dbErr != nil {
		return fmt.Errorf("failed to remove key '%s' [%w]", key, dbErr)
	}

	return nil
}

/*
GetAll read the values of multiple keys at once

	@param ctx context.Context - execution context
	@param keys []string - storage keys
	@param activeDBClient Database - existing database transaction
	@returns value by key for the keys which exist
*/
func (s *keyValueStore) GetAll(
	ctx context.Context, keys []string, activeDBClient db.Database,
) (map[string]string, error) {
	values := map[string]string{}

	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			entries, err := dbClient.GetKeyValues(dbCtx, keys)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				values[entry.Key] = entry.Value
			}
			return nil
		},
	); dbErr != nil {
		return nil, fmt.Errorf("failed to read %d keys [%w]", len(keys), dbErr)
	}

	return values, nil
}

/*
ListKeys list every stored key

	@param ctx context.Context - execution context
	@param activeDBClient Database - existing database transaction
	@returns all keys in lexical order
*/
func (s *keyValueStore) ListKeys(
	ctx context.Context, activeDBClient db.Database,
) ([]string, error) {
	var keys []string

	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			keys, err = dbClient.ListAllKeys(dbCtx)
			return err
		},
	); dbErr != nil {
		return nil, fmt.Errorf("failed to list stored keys [%w]", dbErr)
	}

	return keys, nil
}

/*
Clear delete every stored key

	@param ctx context.Context - execution context
	@param activeDBClient Database - existing database transaction
	@returns number of keys removed
*/
func (s *keyValueStore) Clear(
	ctx context.Context, activeDBClient db.Database,
) (int64, error) {
	var removed int64

	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			removed, err = dbClient.ClearKeyValues(dbCtx)
			return err
		},
	); dbErr != nil {
		return 0, fmt.Errorf("failed to clear stored keys [%w]", dbErr)
	}

	return removed, nil
}
