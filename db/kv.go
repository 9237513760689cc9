// Package db - persistence layer
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/alwitt/gatelink/models"
	"gorm.io/gorm"
)

// ======================================================================================
// Key-value entries

// getKeyValueEntry find a key-value pair by key
func (d *databaseImpl) getKeyValueEntry(key string) (KeyValueDBEntry, error) {
	var entry KeyValueDBEntry
	err := d.db.Where("key = ?", key).First(&entry).Error
	return entry, err
}

/*
SetKeyValue record a key-value pair, creating or replacing the key

	@param ctx context.Context - execution context
	@param key string - storage key
	@param value string - value to store
	@returns the stored entry
*/
func (d *databaseImpl) SetKeyValue(
	_ context.Context, key string, value string,
) (models.KeyValue, error) {
	existing, err := d.getKeyValueEntry(key)
	if err == nil {
		existing.Value = value
		if tmp := d.db.Save(&existing); tmp.Error != nil {
			return models.KeyValue{}, fmt.Errorf("key '%s' failed update [%w]", key, tmp.Error)
		}
		return existing.KeyValue, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.KeyValue{}, fmt.Errorf("failed to fetch key '%s' [%w]", key, err)
	}

	newEntry := KeyValueDBEntry{
		KeyValue: models.KeyValue{Key: key, Value: value},
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.KeyValue{}, fmt.Errorf("new key '%s' is not valid [%w]", key, err)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.KeyValue{}, fmt.Errorf("new key '%s' failed insert [%w]", key, tmp.Error)
	}

	// Record this event
	if _, err := d.defineNewChangeEvent(
		models.ChangeEventTypeAddNewKey, models.ChangeEventKeyRelated{Key: key},
	); err != nil {
		return models.KeyValue{}, fmt.Errorf(
			"failed to log add new key '%s' change event [%w]", key, err,
		)
	}

	return newEntry.KeyValue, nil
}

/*
GetKeyValue fetch one key-value pair

	@param ctx context.Context - execution context
	@param key string - storage key
	@returns the stored entry
*/
func (d *databaseImpl) GetKeyValue(_ context.Context, key string) (models.KeyValue, error) {
	entry, err := d.getKeyValueEntry(key)
	if err != nil {
		return models.KeyValue{}, fmt.Errorf("failed to fetch key '%s' [%w]", key, err)
	}

	return entry.KeyValue, nil
}

/*
GetKeyValues fetch multiple key-value pairs at once

	@param ctx context.Context - execution context
	@param keys []string - storage keys
	@returns the stored entries which exist, in key order
*/
func (d *databaseImpl) GetKeyValues(
	_ context.Context, keys []string,
) ([]models.KeyValue, error) {
	var entries []KeyValueDBEntry
	if tmp := d.db.Where("key in ?", keys).Order("key").Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to fetch keys [%w]", tmp.Error)
	}

	result := []models.KeyValue{}
	for _, entry := range entries {
		result = append(result, entry.KeyValue)
	}

	return result, nil
}

/*
ListAllKeys list every stored key

	@param ctx context.Context - execution context
	@returns all keys in lexical order
*/
func (d *databaseImpl) ListAllKeys(_ context.Context) ([]string, error) {
	keys := []string{}
	if tmp := d.db.Model(&KeyValueDBEntry{}).Order("key").Pluck("key", &keys); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list stored keys [%w]", tmp.Error)
	}

	return keys, nil
}

/*
DeleteKeyValue delete a key-value pair

	@param ctx context.Context - execution context
	@param key string - storage key
*/
func (d *databaseImpl) DeleteKeyValue(_ context.Context, key string) error {
	entry, err := d.getKeyValueEntry(key)
	if err != nil {
		return fmt.Errorf("failed to fetch key '%s' [%w]", key, err)
	}

	if tmp := d.db.Delete(&entry); tmp.Error != nil {
		return fmt.Errorf("failed to delete key '%s' [%w]", key, tmp.Error)
	}

	// Record this event
	if _, err := d.defineNewChangeEvent(
		models.ChangeEventTypeDeleteKey, models.ChangeEventKeyRelated{Key: key},
	); err != nil {
		return fmt.Errorf("failed to log delete key '%s' change event [%w]", key, err)
	}

	return nil
}

/*
ClearKeyValues delete every stored key-value pair

	@param ctx context.Context - execution context
	@returns number of entries removed
*/
func (d *databaseImpl) ClearKeyValues(_ context.Context) (int64, error) {
	result := d.db.Where("1 = 1").Delete(&KeyValueDBEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear stored keys [%w]", result.Error)
	}

	// Record this event
	if _, err := d.defineNewChangeEvent(models.ChangeEventTypeClearStore, nil); err != nil {
		return 0, fmt.Errorf("failed to log clear store change event [%w]", err)
	}

	return result.RowsAffected, nil
}
