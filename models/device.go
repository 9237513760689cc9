package models

// DeviceTypeENUMType relay device type ENUM value type
type DeviceTypeENUMType string

const (
	// DeviceTypeGateOpener GSM gate / door opener relay
	DeviceTypeGateOpener DeviceTypeENUMType = "GATE_OPENER"

	// DeviceTypeIndustrialSwitch GSM industrial switch relay. Declared for
	// forward compatibility; the UI keeps this variant feature-flagged off.
	DeviceTypeIndustrialSwitch DeviceTypeENUMType = "INDUSTRIAL_SWITCH"
)

// AccessControlENUMType relay caller access control mode ENUM value type
type AccessControlENUMType string

const (
	// AccessControlAuthorizedOnly only stored authorized numbers may operate
	// the relay
	AccessControlAuthorizedOnly AccessControlENUMType = "AUTHORIZED_ONLY"

	// AccessControlAllowAll any caller may operate the relay
	AccessControlAllowAll AccessControlENUMType = "ALLOW_ALL"
)

// RelaySettings per-device relay behavior settings
type RelaySettings struct {
	// AccessControl caller access control mode
	AccessControl AccessControlENUMType `json:"accessControl" validate:"required,access_control"`

	// LatchTime relay latch duration as a 3-digit string. "000" is momentary
	// operation.
	LatchTime string `json:"latchTime" validate:"required,latch_time"`
}

// DeviceRecord one registered GSM relay device
type DeviceRecord struct {
	// ID device record ID. Generated at creation, immutable.
	ID string `json:"id" validate:"required,uuid_rfc4122"`

	// Name user facing device label
	Name string `json:"name" validate:"required"`

	// UnitNumber the relay device's own phone number, used as the SMS
	// destination for every command
	UnitNumber string `json:"unitNumber" validate:"required,phone_number"`

	// Password 4-digit command password prefixed to every SMS command
	Password string `json:"password" validate:"required,relay_password"`

	// Type relay device type
	Type DeviceTypeENUMType `json:"type" validate:"required,device_type"`

	// IsActive legacy carry-over flag. The active-device pointer key is the
	// authority for which device is active, not this field.
	IsActive bool `json:"isActive"`

	// RelaySettings relay behavior settings
	RelaySettings RelaySettings `json:"relaySettings"`
}
