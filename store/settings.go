package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alwitt/gatelink/db"
	"github.com/alwitt/gatelink/models"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// SettingsStore application level user preferences
type SettingsStore interface {
	/*
		GetSettings fetch the stored settings.

		Read path never hard fails: storage or decode problems degrade to the
		default settings with a diagnostic log.

			@param ctx context.Context - execution context
			@returns the settings
	*/
	GetSettings(ctx context.Context) models.AppSettings

	/*
		SaveSettings replace the stored settings

			@param ctx context.Context - execution context
			@param settings models.AppSettings - the settings to store
	*/
	SaveSettings(ctx context.Context, settings models.AppSettings) error

	/*
		MigrateLegacySettings combine the legacy flat settings keys into the
		settings document.

		Runs at most once: a NOOP when the settings document already exists,
		or when no legacy settings key exists.

			@param ctx context.Context - execution context
			@returns whether a migration happened
	*/
	MigrateLegacySettings(ctx context.Context) (bool, error)
}

// settingsStore implements SettingsStore
type settingsStore struct {
	goutils.Component

	persistence db.Client

	kv KeyValueStore
}

/*
NewSettingsStore define new settings store

	@param ctx context.Context - execution context
	@param persistence db.Client - persistence layer client
	@param kv KeyValueStore - key-value store adapter
	@returns store instance
*/
func NewSettingsStore(
	_ context.Context, persistence db.Client, kv KeyValueStore,
) (SettingsStore, error) {
	logTags := log.Fields{"module": "store", "component": "settings-store"}

	instance := &settingsStore{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: persistence,
		kv:          kv,
	}

	return instance, nil
}

/*
GetSettings fetch the stored settings

	@param ctx context.Context - execution context
	@returns the settings
*/
func (s *settingsStore) GetSettings(ctx context.Context) models.AppSettings {
	logTags := s.NewLogTagsForContext(ctx)

	settings := models.DefaultAppSettings()
	raw, found, err := s.kv.Get(ctx, KeyAppSettings, nil)
	if err != nil {
		log.WithError(err).WithFields(logTags).Warn("Settings read failed")
		return models.DefaultAppSettings()
	}
	if !found {
		return settings
	}

	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		log.WithError(err).WithFields(logTags).Warn("Stored settings are malformed")
		return models.DefaultAppSettings()
	}

	return settings
}

/*
SaveSettings replace the stored settings

	@param ctx context.Context - execution context
	@param settings models.AppSettings - the settings to store
*/
func (s *settingsStore) SaveSettings(ctx context.Context, settings models.AppSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings [%w]", err)
	}

	if err := s.kv.Set(ctx, KeyAppSettings, string(raw), nil); err != nil {
		return fmt.Errorf("failed to save settings [%w]", err)
	}

	return nil
}

/*
MigrateLegacySettings combine the legacy flat settings keys into the settings document

	@param ctx context.Context - execution context
	@returns whether a migration happened
*/
func (s *settingsStore) MigrateLegacySettings(ctx context.Context) (bool, error) {
	logTags := s.NewLogTagsForContext(ctx)

	migrated := false
	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			_, exists, err := s.kv.Get(dbCtx, KeyAppSettings, dbClient)
			if err != nil {
				return err
			}
			if exists {
				// Already migrated
				return nil
			}

			legacy, err := s.kv.GetAll(dbCtx, []string{
				KeyLegacyDarkMode, KeyLegacyNotifications, KeyLegacyCompletedSteps,
			}, dbClient)
			if err != nil {
				return err
			}
			if len(legacy) == 0 {
				// Fresh installation, nothing to migrate
				return nil
			}

			settings := models.DefaultAppSettings()
			if raw, ok := legacy[KeyLegacyDarkMode]; ok {
				settings.DarkMode = raw == "true"
			}
			if raw, ok := legacy[KeyLegacyNotifications]; ok {
				settings.NotificationsEnabled = raw != "false"
			}
			if raw, ok := legacy[KeyLegacyCompletedSteps]; ok {
				if err := json.Unmarshal([]byte(raw), &settings.CompletedSteps); err != nil {
					log.WithError(err).WithFields(logTags).
						Warn("Legacy completed steps list is malformed, skipping it")
				}
			}

			encoded, err := json.Marshal(settings)
			if err != nil {
				return fmt.Errorf("failed to encode settings [%w]", err)
			}
			if err := s.kv.Set(dbCtx, KeyAppSettings, string(encoded), dbClient); err != nil {
				return err
			}
			if err := dbClient.RecordLegacyMigration(dbCtx, "settings", ""); err != nil {
				return err
			}

			migrated = true
			return nil
		},
	); dbErr != nil {
		return false, fmt.Errorf("failed to migrate legacy settings [%w]", dbErr)
	}

	return migrated, nil
}
