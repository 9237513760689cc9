package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alwitt/gatelink/models"
	"github.com/alwitt/gatelink/store"
	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestBackupRoundTrip verifies a backup taken from a populated store
// restores the exact key/value set.
func TestBackupRoundTrip(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	client, kv := defineTestPersistence(t)
	uut, err := store.NewBackupEngine(utCtx, client, kv)
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – An empty store yields a valid, empty backup
	document, err := uut.CreateBackupDocument(utCtx)
	assert.Nil(err)
	assert.Equal(models.BackupFormatVersion, document.Version)
	assert.Empty(document.Data)

	// -------------------------------------------------------------------------
	// 2 – Populate a mix of JSON and raw string values
	deviceID := uuid.NewString()
	original := map[string]string{
		store.KeyDeviceList: `[{"id":"` + deviceID + `","name":"Home Gate",` +
			`"unitNumber":"+15551234567","password":"1234","type":"GATE_OPENER",` +
			`"isActive":true,"relaySettings":{"accessControl":"AUTHORIZED_ONLY","latchTime":"000"}}]`,
		store.KeyActiveDevice:             deviceID,
		store.AuthorizedUserKey(deviceID): `[{"id":"001","phoneNumber":"+15550001111","serialNumber":"001"}]`,
		store.KeyLegacyUnitNumber:         "+15550009999",
	}
	for key, value := range original {
		assert.Nil(kv.Set(utCtx, key, value, nil))
	}

	document, err = uut.CreateBackupDocument(utCtx)
	assert.Nil(err)
	assert.Len(document.Data, len(original))

	// Serialize and re-parse, as the share/picker flow would
	raw, err := json.Marshal(document)
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 3 – Wipe the store out-of-band, then restore
	_, err = kv.Clear(utCtx, nil)
	assert.Nil(err)

	result, err := uut.RestoreFromDocument(utCtx, raw)
	assert.Nil(err)
	assert.Equal(len(original), result.KeysFound)
	assert.Equal(len(original), result.KeysRestored)

	// 4 – Every key reads back deep-equal to its original
	for key, value := range original {
		restored, found, err := kv.Get(utCtx, key, nil)
		assert.Nil(err)
		assert.True(found)
		if json.Valid([]byte(value)) {
			assert.JSONEq(value, restored)
		} else {
			assert.Equal(value, restored)
		}
	}
	keys, err := kv.ListKeys(utCtx, nil)
	assert.Nil(err)
	assert.Len(keys, len(original))
}

// TestBackupRestoreReplacesState verifies restore clears pre-existing keys
// and accepts the envelope document shape.
func TestBackupRestoreReplacesState(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	client, kv := defineTestPersistence(t)
	uut, err := store.NewBackupEngine(utCtx, client, kv)
	assert.Nil(err)

	// Pre-existing state which must not survive the restore
	assert.Nil(kv.Set(utCtx, "stale-key", uuid.NewString(), nil))

	result, err := uut.RestoreFromDocument(utCtx, []byte(`{"data":{"gsm_devices":"[]"}}`))
	assert.Nil(err)
	assert.Equal(1, result.KeysFound)
	assert.Equal(1, result.KeysRestored)

	// Exactly one key remains, holding the string value verbatim
	keys, err := kv.ListKeys(utCtx, nil)
	assert.Nil(err)
	assert.Equal([]string{store.KeyDeviceList}, keys)

	value, found, err := kv.Get(utCtx, store.KeyDeviceList, nil)
	assert.Nil(err)
	assert.True(found)
	assert.Equal("[]", value)
}

// TestBackupRestoreLegacyFlatMap verifies the bare flat map backup shape of
// early app builds restores as well.
func TestBackupRestoreLegacyFlatMap(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	client, kv := defineTestPersistence(t)
	uut, err := store.NewBackupEngine(utCtx, client, kv)
	assert.Nil(err)

	result, err := uut.RestoreFromDocument(utCtx, []byte(
		`{"unitNumber":"+15550009999","password":"5678","darkMode":"true"}`,
	))
	assert.Nil(err)
	assert.Equal(3, result.KeysFound)
	assert.Equal(3, result.KeysRestored)

	value, found, err := kv.Get(utCtx, store.KeyLegacyUnitNumber, nil)
	assert.Nil(err)
	assert.True(found)
	assert.Equal("+15550009999", value)
}

// TestBackupRestoreRejectsBadContent verifies the restore failure modes stay
// distinguishable.
func TestBackupRestoreRejectsBadContent(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	client, kv := defineTestPersistence(t)
	uut, err := store.NewBackupEngine(utCtx, client, kv)
	assert.Nil(err)

	// 1 – Content which is not a JSON object
	_, err = uut.RestoreFromDocument(utCtx, []byte("not a backup"))
	assert.Error(err)
	assert.True(errors.Is(err, store.ErrInvalidFormat))

	_, err = uut.RestoreFromDocument(utCtx, []byte(`["gsm_devices"]`))
	assert.Error(err)
	assert.True(errors.Is(err, store.ErrInvalidFormat))

	// 2 – An envelope whose data field is not an object
	_, err = uut.RestoreFromDocument(utCtx, []byte(`{"data":42}`))
	assert.Error(err)
	assert.True(errors.Is(err, store.ErrInvalidFormat))

	// 3 – A backup with nothing restorable in it. The store was already
	// cleared by then; destructive by design.
	assert.Nil(kv.Set(utCtx, "stale-key", uuid.NewString(), nil))
	_, err = uut.RestoreFromDocument(utCtx, []byte(`{"data":{}}`))
	assert.Error(err)
	assert.True(errors.Is(err, store.ErrEmptyBackup))

	keys, err := kv.ListKeys(utCtx, nil)
	assert.Nil(err)
	assert.Empty(keys)
}
