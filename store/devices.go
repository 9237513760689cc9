package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alwitt/gatelink/db"
	"github.com/alwitt/gatelink/models"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/google/uuid"
)

// Defaults applied when synthesizing a device record from the legacy
// single-device keys
const (
	defaultMigratedDeviceName = "My Device"
	defaultRelayPassword      = "1234"
	defaultRelayLatchTime     = "000"
)

// DeviceRegistry CRUD over the registered device collection and the
// active-device pointer
type DeviceRegistry interface {
	/*
		ListDevices fetch every registered device record.

		Read path never hard fails: storage or decode problems degrade to an
		empty collection with a diagnostic log.

			@param ctx context.Context - execution context
			@returns the device collection
	*/
	ListDevices(ctx context.Context) []models.DeviceRecord

	/*
		AddDevice register a new device record.

		A fresh device ID is generated; any ID on the given record is ignored.
		The first registered device automatically becomes the active device.
		Field validation is the caller's concern.

			@param ctx context.Context - execution context
			@param newDevice models.DeviceRecord - the record to register, ID excluded
			@returns the registered record including its generated ID
	*/
	AddDevice(ctx context.Context, newDevice models.DeviceRecord) (models.DeviceRecord, error)

	/*
		UpdateDevice replace the stored record matching the given record's ID

			@param ctx context.Context - execution context
			@param device models.DeviceRecord - the updated record
	*/
	UpdateDevice(ctx context.Context, device models.DeviceRecord) error

	/*
		DeleteDevice remove a device record.

		If the removed device was active, the first remaining device is
		elected active; the pointer is cleared when none remain.

			@param ctx context.Context - execution context
			@param deviceID string - ID of the record to remove
	*/
	DeleteDevice(ctx context.Context, deviceID string) error

	/*
		GetActiveDevice resolve the active-device pointer.

			@param ctx context.Context - execution context
			@returns the active device record, or nil when the pointer is
			    absent or dangling
	*/
	GetActiveDevice(ctx context.Context) *models.DeviceRecord

	/*
		SetActiveDevice point the active-device pointer at a registered device

			@param ctx context.Context - execution context
			@param deviceID string - ID of the device to activate
	*/
	SetActiveDevice(ctx context.Context, deviceID string) error

	/*
		MigrateLegacyDevice synthesize a device record from the legacy
		single-device keys.

		Runs at most once: a NOOP when the device collection is already
		populated, or when no legacy unit number exists.

			@param ctx context.Context - execution context
			@returns whether a migration happened
	*/
	MigrateLegacyDevice(ctx context.Context) (bool, error)
}

// deviceRegistry implements DeviceRegistry
type deviceRegistry struct {
	goutils.Component

	persistence db.Client

	kv KeyValueStore
}

/*
NewDeviceRegistry define new device registry

	@param ctx context.Context - execution context
	@param persistence db.Client - persistence layer client
	@param kv KeyValueStore - key-value store adapter
	@returns registry instance
*/
func NewDeviceRegistry(
	_ context.Context, persistence db.Client, kv KeyValueStore,
) (DeviceRegistry, error) {
	logTags := log.Fields{"module": "store", "component": "device-registry"}

	instance := &deviceRegistry{
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

// readDeviceList tolerant read of the device collection. A missing key or a
// value which fails to decode both degrade to an empty collection.
func (r *deviceRegistry) readDeviceList(
	ctx context.Context, dbClient db.Database,
) ([]models.DeviceRecord, error) {
	logTags := r.NewLogTagsForContext(ctx)

	raw, found, err := r.kv.Get(ctx, KeyDeviceList, dbClient)
	if err != nil {
		return nil, fmt.Errorf("failed to read device collection [%w]", err)
	}
	if !found {
		return []models.DeviceRecord{}, nil
	}

	var devices []models.DeviceRecord
	if err := json.Unmarshal([]byte(raw), &devices); err != nil {
		log.WithError(err).WithFields(logTags).Warn("Stored device collection is malformed")
		return []models.DeviceRecord{}, nil
	}

	return devices, nil
}

// writeDeviceList persist the device collection
func (r *deviceRegistry) writeDeviceList(
	ctx context.Context, devices []models.DeviceRecord, dbClient db.Database,
) error {
	raw, err := json.Marshal(devices)
	if err != nil {
		return fmt.Errorf("failed to encode device collection [%w]", err)
	}
	return r.kv.Set(ctx, KeyDeviceList, string(raw), dbClient)
}

/*
ListDevices fetch every registered device record

	@param ctx context.Context - execution context
	@returns the device collection
*/
func (r *deviceRegistry) ListDevices(ctx context.Context) []models.DeviceRecord {
	logTags := r.NewLogTagsForContext(ctx)

	devices := []models.DeviceRecord{}
	if dbErr := r.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			devices, err = r.readDeviceList(dbCtx, dbClient)
			return err
		},
	); dbErr != nil {
		log.WithError(dbErr).WithFields(logTags).Warn("Device collection read failed")
		return []models.DeviceRecord{}
	}

	return devices
}

/*
AddDevice register a new device record

	@param ctx context.Context - execution context
	@param newDevice models.DeviceRecord - the record to register, ID excluded
	@returns the registered record including its generated ID
*/
func (r *deviceRegistry) AddDevice(
	ctx context.Context, newDevice models.DeviceRecord,
) (models.DeviceRecord, error) {
	newDevice.ID = uuid.NewString()

	if dbErr := r.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			devices, err := r.readDeviceList(dbCtx, dbClient)
			if err != nil {
				return err
			}

			devices = append(devices, newDevice)
			if err := r.writeDeviceList(dbCtx, devices, dbClient); err != nil {
				return err
			}

			// The first registered device becomes the active device
			if len(devices) == 1 {
				if err := r.kv.Set(dbCtx, KeyActiveDevice, newDevice.ID, dbClient); err != nil {
					return fmt.Errorf("failed to activate first device [%w]", err)
				}
			}

			return dbClient.MarkStoreMultiDevice(dbCtx)
		},
	); dbErr != nil {
		return models.DeviceRecord{}, fmt.Errorf(
			"failed to register device '%s' [%w]", newDevice.Name, dbErr,
		)
	}

	return newDevice, nil
}

/*
UpdateDevice replace the stored record matching the given record's ID

	@param ctx context.Context - execution context
	@param device models.DeviceRecord - the updated record
*/
func (r *deviceRegistry) UpdateDevice(ctx context.Context, device models.DeviceRecord) error {
	if dbErr := r.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			devices, err := r.readDeviceList(dbCtx, dbClient)
			if err != nil {
				return err
			}

			for idx, existing := range devices {
				if existing.ID == device.ID {
					devices[idx] = device
					return r.writeDeviceList(dbCtx, devices, dbClient)
				}
			}

			return fmt.Errorf("device %s: %w", device.ID, ErrNotFound)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to update device %s [%w]", device.ID, dbErr)
	}

	return nil
}

/*
DeleteDevice remove a device record

	@param ctx context.Context - execution context
	@param deviceID string - ID of the record to remove
*/
func (r *deviceRegistry) DeleteDevice(ctx context.Context, deviceID string) error {
	if dbErr := r.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			devices, err := r.readDeviceList(dbCtx, dbClient)
			if err != nil {
				return err
			}

			remaining := make([]models.DeviceRecord, 0, len(devices))
			found := false
			for _, existing := range devices {
				if existing.ID == deviceID {
					found = true
					continue
				}
				remaining = append(remaining, existing)
			}
			if !found {
				return fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
			}

			if err := r.writeDeviceList(dbCtx, remaining, dbClient); err != nil {
				return err
			}

			// Repair the active-device pointer if it referenced the removed
			// device
			activeID, pointerSet, err := r.kv.Get(dbCtx, KeyActiveDevice, dbClient)
			if err != nil {
				return fmt.Errorf("failed to read active device pointer [%w]", err)
			}
			if !pointerSet || activeID != deviceID {
				return nil
			}

			if len(remaining) > 0 {
				return r.kv.Set(dbCtx, KeyActiveDevice, remaining[0].ID, dbClient)
			}
			return r.kv.Remove(dbCtx, KeyActiveDevice, dbClient)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to delete device %s [%w]", deviceID, dbErr)
	}

	return nil
}

/*
GetActiveDevice resolve the active-device pointer

	@param ctx context.Context - execution context
	@returns the active device record, or nil when the pointer is absent or dangling
*/
func (r *deviceRegistry) GetActiveDevice(ctx context.Context) *models.DeviceRecord {
	logTags := r.NewLogTagsForContext(ctx)

	var active *models.DeviceRecord
	if dbErr := r.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			activeID, pointerSet, err := r.kv.Get(dbCtx, KeyActiveDevice, dbClient)
			if err != nil {
				return fmt.Errorf("failed to read active device pointer [%w]", err)
			}
			if !pointerSet {
				return nil
			}

			devices, err := r.readDeviceList(dbCtx, dbClient)
			if err != nil {
				return err
			}

			for idx, device := range devices {
				if device.ID == activeID {
					active = &devices[idx]
					return nil
				}
			}

			// A dangling pointer means no active device, not an error
			log.WithFields(logTags).
				WithField("device_id", activeID).
				Warn("Active device pointer references an unknown device")
			return nil
		},
	); dbErr != nil {
		log.WithError(dbErr).WithFields(logTags).Warn("Active device lookup failed")
		return nil
	}

	return active
}

/*
SetActiveDevice point the active-device pointer at a registered device

	@param ctx context.Context - execution context
	@param deviceID string - ID of the device to activate
*/
func (r *deviceRegistry) SetActiveDevice(ctx context.Context, deviceID string) error {
	if dbErr := r.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			devices, err := r.readDeviceList(dbCtx, dbClient)
			if err != nil {
				return err
			}

			for _, device := range devices {
				if device.ID == deviceID {
					return r.kv.Set(dbCtx, KeyActiveDevice, deviceID, dbClient)
				}
			}

			return fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to activate device %s [%w]", deviceID, dbErr)
	}

	return nil
}

/*
MigrateLegacyDevice synthesize a device record from the legacy single-device keys

	@param ctx context.Context - execution context
	@returns whether a migration happened
*/
func (r *deviceRegistry) MigrateLegacyDevice(ctx context.Context) (bool, error) {
	logTags := r.NewLogTagsForContext(ctx)

	migrated := false
	if dbErr := r.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			devices, err := r.readDeviceList(dbCtx, dbClient)
			if err != nil {
				return err
			}
			if len(devices) > 0 {
				// Already migrated. Leftover legacy keys are never merged in.
				return nil
			}

			unitNumber, found, err := r.kv.Get(dbCtx, KeyLegacyUnitNumber, dbClient)
			if err != nil {
				return fmt.Errorf("failed to read legacy unit number [%w]", err)
			}
			if !found {
				// Fresh installation, nothing to migrate
				return nil
			}

			password, found, err := r.kv.Get(dbCtx, KeyLegacyPassword, dbClient)
			if err != nil {
				return fmt.Errorf("failed to read legacy password [%w]", err)
			}
			if !found {
				password = defaultRelayPassword
			}

			relaySettings := models.RelaySettings{
				AccessControl: models.AccessControlAuthorizedOnly,
				LatchTime:     defaultRelayLatchTime,
			}
			if raw, found, err := r.kv.Get(dbCtx, KeyLegacyRelaySettings, dbClient); err != nil {
				return fmt.Errorf("failed to read legacy relay settings [%w]", err)
			} else if found {
				if err := json.Unmarshal([]byte(raw), &relaySettings); err != nil {
					log.WithError(err).WithFields(logTags).
						Warn("Legacy relay settings are malformed, using defaults")
					relaySettings = models.RelaySettings{
						AccessControl: models.AccessControlAuthorizedOnly,
						LatchTime:     defaultRelayLatchTime,
					}
				}
			}

			record := models.DeviceRecord{
				ID:            uuid.NewString(),
				Name:          defaultMigratedDeviceName,
				UnitNumber:    unitNumber,
				Password:      password,
				Type:          models.DeviceTypeGateOpener,
				IsActive:      true,
				RelaySettings: relaySettings,
			}

			if err := r.writeDeviceList(
				dbCtx, []models.DeviceRecord{record}, dbClient,
			); err != nil {
				return err
			}
			if err := r.kv.Set(dbCtx, KeyActiveDevice, record.ID, dbClient); err != nil {
				return fmt.Errorf("failed to activate migrated device [%w]", err)
			}
			if err := dbClient.MarkStoreMultiDevice(dbCtx); err != nil {
				return err
			}
			if err := dbClient.RecordLegacyMigration(dbCtx, "device", record.ID); err != nil {
				return err
			}

			migrated = true
			return nil
		},
	); dbErr != nil {
		return false, fmt.Errorf("failed to migrate legacy device [%w]", dbErr)
	}

	return migrated, nil
}
