package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alwitt/gatelink/db"
	"github.com/alwitt/gatelink/models"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// AuthorizedUserStore per-device list of phone numbers permitted to operate
// the relay.
//
// The only write primitive is wholesale list replacement; callers
// read-modify-write the full list. The store does not re-validate lists, see
// models.ValidateAuthorizedUserList.
type AuthorizedUserStore interface {
	/*
		GetUsers fetch one device's authorized user list.

		An empty device ID reads the legacy global list of pre-multi-device
		installations. Read path never hard fails: storage or decode problems
		degrade to an empty list with a diagnostic log.

			@param ctx context.Context - execution context
			@param deviceID string - owning device, or empty for the legacy list
			@returns the stored list
	*/
	GetUsers(ctx context.Context, deviceID string) []models.AuthorizedUser

	/*
		SaveUsers replace one device's authorized user list wholesale

			@param ctx context.Context - execution context
			@param deviceID string - owning device, mandatory
			@param users []models.AuthorizedUser - the full list to store
	*/
	SaveUsers(ctx context.Context, deviceID string, users []models.AuthorizedUser) error

	/*
		MigrateLegacyUsers copy the legacy global user list into a device's slot.

		Runs at most once per device: a NOOP when the device-scoped slot
		already exists, or when there is no legacy list. The legacy list is
		claimed by whichever device migrates first.

			@param ctx context.Context - execution context
			@param deviceID string - target device
			@returns whether a migration happened
	*/
	MigrateLegacyUsers(ctx context.Context, deviceID string) (bool, error)
}

// authorizedUserStore implements AuthorizedUserStore
type authorizedUserStore struct {
	goutils.Component

	persistence db.Client

	kv KeyValueStore
}

/*
NewAuthorizedUserStore define new authorized user store

	@param ctx context.Context - execution context
	@param persistence db.Client - persistence layer client
	@param kv KeyValueStore - key-value store adapter
	@returns store instance
*/
func NewAuthorizedUserStore(
	_ context.Context, persistence db.Client, kv KeyValueStore,
) (AuthorizedUserStore, error) {
	logTags := log.Fields{"module": "store", "component": "authorized-user-store"}

	instance := &authorizedUserStore{
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

// userListKey resolve the storage key for a device's list, falling back to
// the legacy global list when no device is given
func userListKey(deviceID string) string {
	if deviceID == "" {
		return KeyLegacyAuthorizedUsers
	}
	return AuthorizedUserKey(deviceID)
}

/*
GetUsers fetch one device's authorized user list

	@param ctx context.Context - execution context
	@param deviceID string - owning device, or empty for the legacy list
	@returns the stored list
*/
func (s *authorizedUserStore) GetUsers(
	ctx context.Context, deviceID string,
) []models.AuthorizedUser {
	logTags := s.NewLogTagsForContext(ctx)

	users := []models.AuthorizedUser{}
	if dbErr := s.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			raw, found, err := s.kv.Get(dbCtx, userListKey(deviceID), dbClient)
			if err != nil {
				return err
			}
			if !found {
				return nil
			}
			if err := json.Unmarshal([]byte(raw), &users); err != nil {
				log.WithError(err).WithFields(logTags).
					WithField("device_id", deviceID).
					Warn("Stored authorized user list is malformed")
				users = []models.AuthorizedUser{}
			}
			return nil
		},
	); dbErr != nil {
		log.WithError(dbErr).WithFields(logTags).
			WithField("device_id", deviceID).
			Warn("Authorized user list read failed")
		return []models.AuthorizedUser{}
	}

	return users
}

/*
SaveUsers replace one device's authorized user list wholesale

	@param ctx context.Context - execution context
	@param deviceID string - owning device, mandatory
	@param users []models.AuthorizedUser - the full list to store
*/
func (s *authorizedUserStore) SaveUsers(
	ctx context.Context, deviceID string, users []models.AuthorizedUser,
) error {
	if deviceID == "" {
		return errors.New("a device ID is required when saving an authorized user list")
	}

	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to encode authorized user list [%w]", err)
	}

	if err := s.kv.Set(ctx, AuthorizedUserKey(deviceID), string(raw), nil); err != nil {
		return fmt.Errorf(
			"failed to save authorized users of device %s [%w]", deviceID, err,
		)
	}

	return nil
}

/*
MigrateLegacyUsers copy the legacy global user list into a device's slot

	@param ctx context.Context - execution context
	@param deviceID string - target device
	@returns whether a migration happened
*/
func (s *authorizedUserStore) MigrateLegacyUsers(
	ctx context.Context, deviceID string,
) (bool, error) {
	if deviceID == "" {
		return false, errors.New("a device ID is required when migrating the legacy user list")
	}

	migrated := false
	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			_, exists, err := s.kv.Get(dbCtx, AuthorizedUserKey(deviceID), dbClient)
			if err != nil {
				return err
			}
			if exists {
				// Already migrated
				return nil
			}

			legacyRaw, found, err := s.kv.Get(dbCtx, KeyLegacyAuthorizedUsers, dbClient)
			if err != nil {
				return err
			}
			if !found {
				return nil
			}

			if err := s.kv.Set(
				dbCtx, AuthorizedUserKey(deviceID), legacyRaw, dbClient,
			); err != nil {
				return err
			}
			if err := dbClient.RecordLegacyMigration(dbCtx, "users", deviceID); err != nil {
				return err
			}

			migrated = true
			return nil
		},
	); dbErr != nil {
		return false, fmt.Errorf(
			"failed to migrate legacy users to device %s [%w]", deviceID, dbErr,
		)
	}

	return migrated, nil
}
