package models

import (
	"fmt"
	"time"
)

// StoreStateENUMType storage layout generation ENUM
type StoreStateENUMType string

const (
	// StoreStateSingleDevice pre-multi-device layout: one implicit device
	// described by flat settings keys
	StoreStateSingleDevice StoreStateENUMType = "SINGLE_DEVICE"
	// StoreStateMultiDevice multi-device layout: device records collection
	// plus device-scoped resource keys
	StoreStateMultiDevice StoreStateENUMType = "MULTI_DEVICE"
)

// StoreParams store operating parameters
type StoreParams struct {
	// ID param entry ID. It must always be store-parameters
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required,oneof=store-parameters"`

	// State storage layout generation
	State StoreStateENUMType `json:"state" gorm:"column:state;not null" validate:"required,store_state"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateNextState verify can transition to new state
//
// The layout generation only moves forward: once multi-device, never back.
func (p *StoreParams) ValidateNextState(newState StoreStateENUMType) error {
	statesWithTransitions := map[StoreStateENUMType]map[StoreStateENUMType]bool{
		StoreStateSingleDevice: {
			StoreStateSingleDevice: true,
			StoreStateMultiDevice:  true,
		},
		StoreStateMultiDevice: {
			StoreStateMultiDevice: true,
		},
	}

	availableNextStates, ok := statesWithTransitions[p.State]
	if !ok {
		return fmt.Errorf("store can't transition out of state '%s'", p.State)
	}

	if _, ok := availableNextStates[newState]; !ok {
		return fmt.Errorf("store can't transition from '%s' to '%s'", p.State, newState)
	}

	return nil
}
