package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alwitt/gatelink/db"
	"github.com/alwitt/gatelink/models"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/oklog/ulid/v2"
)

// MaxLogEntriesPerPartition maximum retained entries per log partition. On
// overflow the oldest entries are dropped.
const MaxLogEntriesPerPartition = 200

// Activity log action vocabulary
const (
	ActionGateOpen         = "Gate Open"
	ActionGateClose        = "Gate Close"
	ActionPasswordChange   = "Password Change"
	ActionUserManagement   = "User Management"
	ActionAccessControl    = "Access Control"
	ActionRelayTiming      = "Relay Timing"
	ActionStatusCheck      = "Status Check"
	ActionDeviceManagement = "Device Management"
	ActionBackupRestore    = "Backup/Restore"
)

// ActivityLogStore append-only, size-capped log of user actions, partitioned
// per device with a legacy global partition
type ActivityLogStore interface {
	/*
		AddEntry append a log entry to a partition.

		The entry gets a fresh ID and the current timestamp. When the
		partition exceeds its maximum retained size the oldest entries are
		dropped. Details must not contain the device password in plaintext;
		masking before logging is the caller's concern.

			@param ctx context.Context - execution context
			@param deviceID string - owning device, or empty for the legacy partition
			@param action string - short action category label
			@param details string - free-text description
			@param success bool - action outcome
			@returns the appended entry
	*/
	AddEntry(
		ctx context.Context, deviceID string, action string, details string, success bool,
	) (models.LogEntry, error)

	/*
		GetEntries fetch a partition's entries, newest first.

		Read path never hard fails: storage or decode problems degrade to an
		empty partition with a diagnostic log.

			@param ctx context.Context - execution context
			@param deviceID string - owning device, or empty for the legacy partition
			@returns the partition's entries sorted by timestamp descending
	*/
	GetEntries(ctx context.Context, deviceID string) []models.LogEntry

	/*
		ClearEntries empty one partition, leaving every other partition intact

			@param ctx context.Context - execution context
			@param deviceID string - owning device, or empty for the legacy partition
	*/
	ClearEntries(ctx context.Context, deviceID string) error

	/*
		MigrateLegacyLogs copy the legacy global partition into a device's
		partition.

		Runs at most once per device: a NOOP when the device-scoped partition
		already exists, or when there is no legacy partition. The legacy
		partition is kept, other devices may still read it.

			@param ctx context.Context - execution context
			@param deviceID string - target device
			@returns whether a migration happened
	*/
	MigrateLegacyLogs(ctx context.Context, deviceID string) (bool, error)
}

// activityLogStore implements ActivityLogStore
type activityLogStore struct {
	goutils.Component

	persistence db.Client

	kv KeyValueStore
}

/*
NewActivityLogStore define new activity log store

	@param ctx context.Context - execution context
	@param persistence db.Client - persistence layer client
	@param kv KeyValueStore - key-value store adapter
	@returns store instance
*/
func NewActivityLogStore(
	_ context.Context, persistence db.Client, kv KeyValueStore,
) (ActivityLogStore, error) {
	logTags := log.Fields{"module": "store", "component": "activity-log-store"}

	instance := &activityLogStore{
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

// logPartitionKey resolve the storage key of a partition
func logPartitionKey(deviceID string) string {
	if deviceID == "" {
		return KeyLegacyLogs
	}
	return DeviceLogKey(deviceID)
}

// readPartition tolerant read of one partition. A missing key or a value
// which fails to decode both degrade to an empty partition.
func (s *activityLogStore) readPartition(
	ctx context.Context, deviceID string, dbClient db.Database,
) ([]models.LogEntry, error) {
	logTags := s.NewLogTagsForContext(ctx)

	raw, found, err := s.kv.Get(ctx, logPartitionKey(deviceID), dbClient)
	if err != nil {
		return nil, fmt.Errorf("failed to read log partition [%w]", err)
	}
	if !found {
		return []models.LogEntry{}, nil
	}

	var entries []models.LogEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.WithError(err).WithFields(logTags).
			WithField("device_id", deviceID).
			Warn("Stored log partition is malformed")
		return []models.LogEntry{}, nil
	}

	return entries, nil
}

// writePartition persist one partition
func (s *activityLogStore) writePartition(
	ctx context.Context, deviceID string, entries []models.LogEntry, dbClient db.Database,
) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode log partition [%w]", err)
	}
	return s.kv.Set(ctx, logPartitionKey(deviceID), string(raw), dbClient)
}

/*
AddEntry append a log entry to a partition

	@param ctx context.Context - execution context
	@param deviceID string - owning device, or empty for the legacy partition
	@param action string - short action category label
	@param details string - free-text description
	@param success bool - action outcome
	@returns the appended entry
*/
func (s *activityLogStore) AddEntry(
	ctx context.Context, deviceID string, action string, details string, success bool,
) (models.LogEntry, error) {
	newEntry := models.LogEntry{
		ID:        ulid.Make().String(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Details:   details,
		Success:   success,
		DeviceID:  deviceID,
	}

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			entries, err := s.readPartition(dbCtx, deviceID, dbClient)
			if err != nil {
				return err
			}

			entries = append(entries, newEntry)
			// Cap the partition, dropping the oldest entries first
			if len(entries) > MaxLogEntriesPerPartition {
				entries = entries[len(entries)-MaxLogEntriesPerPartition:]
			}

			return s.writePartition(dbCtx, deviceID, entries, dbClient)
		},
	); dbErr != nil {
		return models.LogEntry{}, fmt.Errorf("failed to append log entry [%w]", dbErr)
	}

	return newEntry, nil
}

/*
GetEntries fetch a partition's entries, newest first

	@param ctx context.Context - execution context
	@param deviceID string - owning device, or empty for the legacy partition
	@returns the partition's entries sorted by timestamp descending
*/
func (s *activityLogStore) GetEntries(ctx context.Context, deviceID string) []models.LogEntry {
	logTags := s.NewLogTagsForContext(ctx)

	entries := []models.LogEntry{}
	if dbErr := s.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			entries, err = s.readPartition(dbCtx, deviceID, dbClient)
			return err
		},
	); dbErr != nil {
		log.WithError(dbErr).WithFields(logTags).
			WithField("device_id", deviceID).
			Warn("Log partition read failed")
		return []models.LogEntry{}
	}

	// Entries are stored in insertion order; newest-first ordering is a
	// read-time concern
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	return entries
}

/*
ClearEntries empty one partition, leaving every other partition intact

	@param ctx context.Context - execution context
	@param deviceID string - owning device, or empty for the legacy partition
*/
func (s *activityLogStore) ClearEntries(ctx context.Context, deviceID string) error {
	if err := s.kv.Set(ctx, logPartitionKey(deviceID), "[]", nil); err != nil {
		return fmt.Errorf("failed to clear log partition [%w]", err)
	}
	return nil
}

/*
MigrateLegacyLogs copy the legacy global partition into a device's partition

	@param ctx context.Context - execution context
	@param deviceID string - target device
	@returns whether a migration happened
*/
func (s *activityLogStore) MigrateLegacyLogs(
	ctx context.Context, deviceID string,
) (bool, error) {
	if deviceID == "" {
		return false, errors.New("a device ID is required when migrating the legacy logs")
	}

	migrated := false
	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			_, exists, err := s.kv.Get(dbCtx, DeviceLogKey(deviceID), dbClient)
			if err != nil {
				return err
			}
			if exists {
				// Already migrated
				return nil
			}

			legacyRaw, found, err := s.kv.Get(dbCtx, KeyLegacyLogs, dbClient)
			if err != nil {
				return err
			}
			if !found {
				return nil
			}

			// The legacy partition stays in place for yet-unmigrated devices
			if err := s.kv.Set(dbCtx, DeviceLogKey(deviceID), legacyRaw, dbClient); err != nil {
				return err
			}
			if err := dbClient.RecordLegacyMigration(dbCtx, "logs", deviceID); err != nil {
				return err
			}

			migrated = true
			return nil
		},
	); dbErr != nil {
		return false, fmt.Errorf(
			"failed to migrate legacy logs to device %s [%w]", deviceID, dbErr,
		)
	}

	return migrated, nil
}
