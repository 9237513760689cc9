package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alwitt/gatelink/models"
	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
)

// defineNewChangeEvent record a new storage change event
func (d *databaseImpl) defineNewChangeEvent(
	eventType models.ChangeEventTypeENUMType, metadata interface{},
) (models.ChangeEvent, error) {

	newEntry := ChangeEventDBEntry{
		ChangeEvent: models.ChangeEvent{ID: ulid.Make().String(), EventType: eventType},
	}

	if metadata != nil {
		if err := d.validator.Struct(metadata); err != nil {
			return models.ChangeEvent{}, fmt.Errorf(
				"new change event '%s' metadata entry is not valid [%w]", eventType, err,
			)
		}

		metadataStr, _ := json.Marshal(&metadata)
		newEntry.Metadata = datatypes.JSON(metadataStr)
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.ChangeEvent{}, fmt.Errorf(
			"new change event '%s' entry is not valid [%w]", eventType, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.ChangeEvent{}, fmt.Errorf(
			"new change event '%s' insert failed [%w]", eventType, tmp.Error,
		)
	}

	return newEntry.ChangeEvent, nil
}

/*
RecordBackupRestore record a backup restore change event

	@param ctx context.Context - execution context
	@param keysRestored int - number of keys successfully written back
	@param keysFound int - number of keys present in the backup document
*/
func (d *databaseImpl) RecordBackupRestore(
	_ context.Context, keysRestored int, keysFound int,
) error {
	_, err := d.defineNewChangeEvent(
		models.ChangeEventTypeRestoreBackup,
		models.ChangeEventRestoreRelated{KeysRestored: keysRestored, KeysFound: keysFound},
	)
	return err
}

/*
RecordLegacyMigration record a legacy data migration change event

	@param ctx context.Context - execution context
	@param resource string - the migrated resource (device, users, logs, settings)
	@param deviceID string - target device when the resource is device scoped
*/
func (d *databaseImpl) RecordLegacyMigration(
	_ context.Context, resource string, deviceID string,
) error {
	_, err := d.defineNewChangeEvent(
		models.ChangeEventTypeLegacyMigration,
		models.ChangeEventMigrationRelated{Resource: resource, DeviceID: deviceID},
	)
	return err
}

/*
ListChangeEvents list captured storage change events

	@param ctx context.Context - execution context
	@param filters ChangeEventQueryFilter - entry listing filter
	@return list of change events
*/
func (d *databaseImpl) ListChangeEvents(
	_ context.Context, filters ChangeEventQueryFilter,
) ([]models.ChangeEvent, error) {
	query := d.db.Model(&ChangeEventDBEntry{})

	if len(filters.EventTypes) > 0 {
		query = query.Where("type in ?", filters.EventTypes)
	}

	if filters.EventsAfter != nil {
		query = query.Where("created_at >= ?", *filters.EventsAfter)
	}
	if filters.EventsBefore != nil {
		query = query.Where("created_at <= ?", *filters.EventsBefore)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("created_at")

	var entries []ChangeEventDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list captured change events [%w]", tmp.Error)
	}

	result := []models.ChangeEvent{}
	for _, entry := range entries {
		result = append(result, entry.ChangeEvent)
	}

	return result, nil
}
