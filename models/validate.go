package models

import (
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	relayPasswordRegex = regexp.MustCompile(`^[0-9]{4}$`)
	latchTimeRegex     = regexp.MustCompile(`^[0-9]{3}$`)
	serialSlotRegex    = regexp.MustCompile(`^[0-9]{3}$`)
	scheduleTimeRegex  = regexp.MustCompile(`^[0-9]{10}$`)
	phoneNumberRegex   = regexp.MustCompile(`^\+?[0-9]+$`)
)

// IsRelayPassword verify the string is a valid 4-digit relay password
func IsRelayPassword(value string) bool {
	return relayPasswordRegex.MatchString(value)
}

// IsLatchTime verify the string is a valid 3-digit relay latch time
func IsLatchTime(value string) bool {
	return latchTimeRegex.MatchString(value)
}

// IsSerialSlot verify the string is a valid relay memory slot index. The
// relay supports slots 001 through 200.
func IsSerialSlot(value string) bool {
	if !serialSlotRegex.MatchString(value) {
		return false
	}
	slot := int(value[0]-'0')*100 + int(value[1]-'0')*10 + int(value[2]-'0')
	return slot >= 1 && slot <= 200
}

// IsScheduleTime verify the string is a valid 10-digit YYMMDDHHMM time
func IsScheduleTime(value string) bool {
	return scheduleTimeRegex.MatchString(value)
}

// IsPhoneNumber verify the string is a phone number: digits with an optional
// leading '+'
func IsPhoneNumber(value string) bool {
	return phoneNumberRegex.MatchString(value)
}

/*
RegisterWithValidator register with the validator this custom validation support

	@param v *validator.Validate - the validator to register against
	@return whether successful
*/
func RegisterWithValidator(v *validator.Validate) error {
	for name, checker := range map[string]func(string) bool{
		"relay_password": IsRelayPassword,
		"latch_time":     IsLatchTime,
		"serial_slot":    IsSerialSlot,
		"schedule_time":  IsScheduleTime,
		"phone_number":   IsPhoneNumber,
	} {
		if err := v.RegisterValidation(name, newStringValidator(checker)); err != nil {
			return err
		}
	}

	if err := v.RegisterValidation("device_type", validateDeviceType); err != nil {
		return err
	}

	if err := v.RegisterValidation("access_control", validateAccessControlType); err != nil {
		return err
	}

	if err := v.RegisterValidation("store_state", validateStoreStateType); err != nil {
		return err
	}

	if err := v.RegisterValidation("change_event_type", validateChangeEventType); err != nil {
		return err
	}

	return nil
}

func newStringValidator(checker func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		return checker(fl.Field().String())
	}
}

func validateDeviceType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch DeviceTypeENUMType(fl.Field().String()) {
	case DeviceTypeGateOpener:
		fallthrough
	case DeviceTypeIndustrialSwitch:
		return true
	}
	return false
}

func validateAccessControlType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch AccessControlENUMType(fl.Field().String()) {
	case AccessControlAuthorizedOnly:
		fallthrough
	case AccessControlAllowAll:
		return true
	}
	return false
}

func validateStoreStateType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch StoreStateENUMType(fl.Field().String()) {
	case StoreStateSingleDevice:
		fallthrough
	case StoreStateMultiDevice:
		return true
	}
	return false
}

func validateChangeEventType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch ChangeEventTypeENUMType(fl.Field().String()) {
	case ChangeEventTypeAddNewKey:
		fallthrough
	case ChangeEventTypeDeleteKey:
		fallthrough
	case ChangeEventTypeClearStore:
		fallthrough
	case ChangeEventTypeRestoreBackup:
		fallthrough
	case ChangeEventTypeLegacyMigration:
		fallthrough
	case ChangeEventTypeLayoutUpgraded:
		return true
	}
	return false
}
