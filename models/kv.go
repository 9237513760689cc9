package models

import "time"

// KeyValue one persisted key-value pair
type KeyValue struct {
	// Key storage key
	Key string `json:"key" gorm:"column:key;primaryKey;unique" validate:"required"`

	// Value stored value. Most components keep JSON documents here; a few
	// legacy keys hold raw strings.
	Value string `json:"value" gorm:"column:value;not null"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}
