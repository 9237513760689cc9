package models

// AppSettings application level user preferences
type AppSettings struct {
	// DarkMode dark UI theme enabled
	DarkMode bool `json:"darkMode"`

	// NotificationsEnabled local notifications enabled
	NotificationsEnabled bool `json:"notificationsEnabled"`

	// CompletedSteps onboarding steps the user has completed
	CompletedSteps []string `json:"completedSteps,omitempty"`
}

// DefaultAppSettings settings applied before the user has saved any
func DefaultAppSettings() AppSettings {
	return AppSettings{DarkMode: false, NotificationsEnabled: true}
}
