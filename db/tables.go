package db

import "github.com/alwitt/gatelink/models"

// --------------------------------------------------------------------------------------
// Storage change events

// ChangeEventDBEntry storage change event DB entry
type ChangeEventDBEntry struct {
	models.ChangeEvent
}

// TableName hard code table name
func (ChangeEventDBEntry) TableName() string {
	return "change_events"
}

// --------------------------------------------------------------------------------------
// Store parameters

// StoreParamsDBEntry store parameter DB entry
type StoreParamsDBEntry struct {
	models.StoreParams
}

// TableName hard code table name
func (StoreParamsDBEntry) TableName() string {
	return "store_params"
}

// --------------------------------------------------------------------------------------
// Key-value entries

// KeyValueDBEntry key-value pair DB entry
type KeyValueDBEntry struct {
	models.KeyValue
}

// TableName hard code table name
func (KeyValueDBEntry) TableName() string {
	return "key_values"
}
