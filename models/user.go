package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// AuthorizedUser one phone number stored in a relay device's internal memory
// and permitted to operate it. Scoped to a single device's list.
type AuthorizedUser struct {
	// ID list position identifier. Unique within one device's list only.
	ID string `json:"id" validate:"required"`

	// Name optional display label
	Name string `json:"name,omitempty"`

	// PhoneNumber the authorized caller's number
	PhoneNumber string `json:"phoneNumber" validate:"required,phone_number"`

	// SerialNumber 3-digit slot index (001-200) inside the relay's internal
	// memory. The authoritative key for add/remove SMS commands.
	SerialNumber string `json:"serialNumber" validate:"required,serial_slot"`

	// StartTime optional access window start, 10-digit YYMMDDHHMM
	StartTime string `json:"startTime,omitempty" validate:"omitempty,schedule_time"`
	// EndTime optional access window end, 10-digit YYMMDDHHMM. Present if and
	// only if StartTime is present.
	EndTime string `json:"endTime,omitempty" validate:"omitempty,schedule_time"`
}

/*
ValidateAuthorizedUserList verify a device's full authorized user list.

The user store persists lists wholesale without re-validating; callers run
this before saving. Checks each entry, phone number and serial slot
uniqueness within the list, and that access window times come in pairs.

	@param v *validator.Validate - the validator to check against
	@param users []AuthorizedUser - the full list to verify
	@return nil if the list is valid
*/
func ValidateAuthorizedUserList(v *validator.Validate, users []AuthorizedUser) error {
	seenPhones := map[string]bool{}
	seenSlots := map[string]bool{}

	for _, user := range users {
		if err := v.Struct(&user); err != nil {
			return fmt.Errorf("authorized user '%s' is not valid [%w]", user.ID, err)
		}

		if (user.StartTime == "") != (user.EndTime == "") {
			return fmt.Errorf(
				"authorized user '%s' has unpaired access window times", user.ID,
			)
		}

		if seenPhones[user.PhoneNumber] {
			return fmt.Errorf(
				"phone number '%s' appears more than once in the list", user.PhoneNumber,
			)
		}
		seenPhones[user.PhoneNumber] = true

		if seenSlots[user.SerialNumber] {
			return fmt.Errorf(
				"serial slot '%s' appears more than once in the list", user.SerialNumber,
			)
		}
		seenSlots[user.SerialNumber] = true
	}

	return nil
}
