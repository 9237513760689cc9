// Package store - data storage controllers
package store

// Multi-device layout storage keys
const (
	// KeyDeviceList JSON array of every registered device record
	KeyDeviceList = "gsm_devices"

	// KeyActiveDevice raw device ID of the currently selected device
	KeyActiveDevice = "active_device_id"

	// KeyAppSettings JSON document of application level user preferences
	KeyAppSettings = "app_settings"
)

// Legacy single-device layout storage keys.
//
// These keys described the one implicit device of pre-multi-device app
// builds. They are read during migration and carried through backups, never
// written by current code.
const (
	// KeyLegacyAuthorizedUsers global authorized user list
	KeyLegacyAuthorizedUsers = "authorizedUsers"

	// KeyLegacyLogs global activity log partition. Historical builds also
	// wrote "systemLogs" and "smsCommandLogs"; this is the canonical legacy
	// partition read during migration.
	KeyLegacyLogs = "app_logs"

	// KeyLegacyUnitNumber the implicit device's phone number
	KeyLegacyUnitNumber = "unitNumber"

	// KeyLegacyPassword the implicit device's 4-digit command password
	KeyLegacyPassword = "password"

	// KeyLegacyRelaySettings the implicit device's relay settings document
	KeyLegacyRelaySettings = "relaySettings"

	// KeyLegacyCompletedSteps onboarding steps completed
	KeyLegacyCompletedSteps = "completedSteps"

	// KeyLegacyNotifications notifications enabled flag
	KeyLegacyNotifications = "notificationsEnabled"

	// KeyLegacyDarkMode dark theme flag
	KeyLegacyDarkMode = "darkMode"
)

// AuthorizedUserKey storage key of one device's authorized user list
func AuthorizedUserKey(deviceID string) string {
	return "authorizedUsers_" + deviceID
}

// DeviceLogKey storage key of one device's activity log partition
func DeviceLogKey(deviceID string) string {
	return "logs_" + deviceID
}
