package store_test

import (
	"context"
	"testing"

	"github.com/alwitt/gatelink/models"
	"github.com/alwitt/gatelink/store"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

// TestSettingsStoreBasicUsage verifies settings defaults, round-trip, and
// legacy flat key migration.
func TestSettingsStoreBasicUsage(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	client, kv := defineTestPersistence(t)
	uut, err := store.NewSettingsStore(utCtx, client, kv)
	assert.Nil(err)

	// 1 – Defaults before anything is saved
	settings := uut.GetSettings(utCtx)
	assert.False(settings.DarkMode)
	assert.True(settings.NotificationsEnabled)

	// 2 – Saved settings read back
	settings.DarkMode = true
	settings.CompletedSteps = []string{"register-device", "add-users"}
	assert.Nil(uut.SaveSettings(utCtx, settings))
	assert.Equal(settings, uut.GetSettings(utCtx))

	// 3 – Malformed stored settings degrade to defaults
	assert.Nil(kv.Set(utCtx, store.KeyAppSettings, "not json", nil))
	assert.Equal(models.DefaultAppSettings(), uut.GetSettings(utCtx))
}

// TestSettingsStoreLegacyMigration verifies the one-time combination of the
// legacy flat settings keys.
func TestSettingsStoreLegacyMigration(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	client, kv := defineTestPersistence(t)
	uut, err := store.NewSettingsStore(utCtx, client, kv)
	assert.Nil(err)

	// 1 – Nothing to migrate on a fresh installation
	migrated, err := uut.MigrateLegacySettings(utCtx)
	assert.Nil(err)
	assert.False(migrated)

	// 2 – Seed the legacy flat keys, then migrate
	assert.Nil(kv.Set(utCtx, store.KeyLegacyDarkMode, "true", nil))
	assert.Nil(kv.Set(utCtx, store.KeyLegacyNotifications, "false", nil))
	assert.Nil(kv.Set(utCtx, store.KeyLegacyCompletedSteps, `["register-device"]`, nil))

	migrated, err = uut.MigrateLegacySettings(utCtx)
	assert.Nil(err)
	assert.True(migrated)

	settings := uut.GetSettings(utCtx)
	assert.True(settings.DarkMode)
	assert.False(settings.NotificationsEnabled)
	assert.Equal([]string{"register-device"}, settings.CompletedSteps)

	// 3 – Migration is idempotent
	migrated, err = uut.MigrateLegacySettings(utCtx)
	assert.Nil(err)
	assert.False(migrated)
}
