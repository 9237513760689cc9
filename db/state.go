package db

import (
	"context"
	"fmt"

	"github.com/alwitt/gatelink/models"
)

// GlobalStoreParamEntryID ID of the singleton store parameter entry
const GlobalStoreParamEntryID = "store-parameters"

// getStoreParamEntry fetch the store param entry
//
// If the entry does not exist, initialize a new one in the single-device
// layout state.
func (d *databaseImpl) getStoreParamEntry() (StoreParamsDBEntry, error) {
	var entries []StoreParamsDBEntry
	dbErr := d.db.Where("id = ?", GlobalStoreParamEntryID).Find(&entries).Error
	if dbErr != nil {
		return StoreParamsDBEntry{}, fmt.Errorf("failed to read store params table [%w]", dbErr)
	}
	if len(entries) == 0 {
		// Make a new one
		newEntry := StoreParamsDBEntry{
			StoreParams: models.StoreParams{
				ID:    GlobalStoreParamEntryID,
				State: models.StoreStateSingleDevice,
			},
		}
		if dbErr = d.db.Create(&newEntry).Error; dbErr != nil {
			return StoreParamsDBEntry{}, fmt.Errorf(
				"failed to setup singleton store params table [%w]", dbErr,
			)
		}
		return newEntry, nil
	}
	return entries[0], nil
}

/*
GetStoreParams fetch the global singleton store parameter entry

	@param ctx context.Context - execution context
	@returns the entry
*/
func (d *databaseImpl) GetStoreParams(_ context.Context) (models.StoreParams, error) {
	entry, err := d.getStoreParamEntry()
	if err != nil {
		return entry.StoreParams, fmt.Errorf("unable to fetch store parameter entry [%w]", err)
	}
	return entry.StoreParams, nil
}

// updateStoreParamState update the store parameter entry with new state
func (d *databaseImpl) updateStoreParamState(newState models.StoreStateENUMType) error {
	entry, err := d.getStoreParamEntry()
	if err != nil {
		return fmt.Errorf("unable to fetch store parameter entry [%w]", err)
	}

	if entry.State == newState {
		// NOOP
		return nil
	}

	if err := entry.ValidateNextState(newState); err != nil {
		return fmt.Errorf("store state change to %s not allowed [%w]", newState, err)
	}

	entry.State = newState
	if tmp := d.db.Updates(&entry); tmp.Error != nil {
		return fmt.Errorf("store state change update failed [%w]", tmp.Error)
	}

	// record this event
	if newState == models.StoreStateMultiDevice {
		_, err = d.defineNewChangeEvent(models.ChangeEventTypeLayoutUpgraded, nil)
		if err != nil {
			return fmt.Errorf("failed to log store state change event [%w]", err)
		}
	}

	return nil
}

/*
MarkStoreMultiDevice mark the store as using the multi-device layout

	@param ctx context.Context - execution context
*/
func (d *databaseImpl) MarkStoreMultiDevice(_ context.Context) error {
	return d.updateStoreParamState(models.StoreStateMultiDevice)
}
