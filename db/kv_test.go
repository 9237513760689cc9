package db_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alwitt/gatelink/db"
	"github.com/alwitt/gatelink/models"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

// TestDBKeyValueCRUD verifies the behavior of `Database.SetKeyValue`,
// `Database.GetKeyValue`, `Database.GetKeyValues`, `Database.ListAllKeys`,
// `Database.DeleteKeyValue`, and `Database.ClearKeyValues`.
func TestDBKeyValueCRUD(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// Create a unique temporary DB file for this test
	testDB := fmt.Sprintf("/tmp/gatelink_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	// Create a new DB connection
	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	// Create database tables
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	// -------------------------------------------------------------------------
	// 1 – Store a key (test key 1)
	key1 := uuid.NewString()
	value1 := uuid.NewString()
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.SetKeyValue(ctx, key1, value1)
		return err
	})
	assert.Nil(err)

	// 2 – Get back test key 1 and verify its content
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		entry, err := dbClient.GetKeyValue(ctx, key1)
		if err != nil {
			return err
		}
		assert.Equal(value1, entry.Value)
		return nil
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 3 – Overwrite test key 1 with a new value
	value1Updated := uuid.NewString()
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.SetKeyValue(ctx, key1, value1Updated)
		return err
	})
	assert.Nil(err)

	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		entry, err := dbClient.GetKeyValue(ctx, key1)
		if err != nil {
			return err
		}
		assert.Equal(value1Updated, entry.Value)
		return nil
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 4 – Store a second key, then check multi-key fetch and key listing
	key2 := uuid.NewString()
	value2 := uuid.NewString()
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.SetKeyValue(ctx, key2, value2)
		return err
	})
	assert.Nil(err)

	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		entries, err := dbClient.GetKeyValues(ctx, []string{key1, key2, "no-such-key"})
		if err != nil {
			return err
		}
		assert.Len(entries, 2)
		return nil
	})
	assert.Nil(err)

	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		keys, err := dbClient.ListAllKeys(ctx)
		if err != nil {
			return err
		}
		assert.Len(keys, 2)
		assert.Contains(keys, key1)
		assert.Contains(keys, key2)
		return nil
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 5 – Delete test key 1
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		return dbClient.DeleteKeyValue(ctx, key1)
	})
	assert.Nil(err)

	// 6 – Get back test key 1 (should fail)
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.GetKeyValue(ctx, key1)
		return err
	})
	assert.Error(err)

	// -------------------------------------------------------------------------
	// 7 – Clear the store and verify nothing remains
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		removed, err := dbClient.ClearKeyValues(ctx)
		if err != nil {
			return err
		}
		assert.EqualValues(1, removed)
		return nil
	})
	assert.Nil(err)

	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		keys, err := dbClient.ListAllKeys(ctx)
		if err != nil {
			return err
		}
		assert.Empty(keys)
		return nil
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 8 – Verify the change events captured along the way
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		events, err := dbClient.ListChangeEvents(ctx, db.ChangeEventQueryFilter{})
		if err != nil {
			return err
		}

		types := []models.ChangeEventTypeENUMType{}
		for _, event := range events {
			types = append(types, event.EventType)
		}
		// Two key creations, one deletion, one clear. Overwrites are not
		// captured.
		assert.Equal([]models.ChangeEventTypeENUMType{
			models.ChangeEventTypeAddNewKey,
			models.ChangeEventTypeAddNewKey,
			models.ChangeEventTypeDeleteKey,
			models.ChangeEventTypeClearStore,
		}, types)
		return nil
	})
	assert.Nil(err)
}

// TestDBChangeEventMetadata verifies change event metadata parsing.
func TestDBChangeEventMetadata(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/gatelink_ut_%s.db", ulid.Make().String())
	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	targetDevice := uuid.NewString()

	// 1 – Record a migration and a restore event
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		if err := dbClient.RecordLegacyMigration(ctx, "users", targetDevice); err != nil {
			return err
		}
		return dbClient.RecordBackupRestore(ctx, 7, 9)
	})
	assert.Nil(err)

	// 2 – Read the events back and parse their metadata
	checker := validator.New()
	assert.Nil(models.RegisterWithValidator(checker))

	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		events, err := dbClient.ListChangeEvents(ctx, db.ChangeEventQueryFilter{
			EventTypes: []models.ChangeEventTypeENUMType{
				models.ChangeEventTypeLegacyMigration,
				models.ChangeEventTypeRestoreBackup,
			},
		})
		if err != nil {
			return err
		}
		assert.Len(events, 2)

		for _, event := range events {
			parsed, err := event.ParseMetadata(checker)
			assert.Nil(err)
			switch event.EventType {
			case models.ChangeEventTypeLegacyMigration:
				metadata, ok := parsed.(models.ChangeEventMigrationRelated)
				assert.True(ok)
				assert.Equal("users", metadata.Resource)
				assert.Equal(targetDevice, metadata.DeviceID)
			case models.ChangeEventTypeRestoreBackup:
				metadata, ok := parsed.(models.ChangeEventRestoreRelated)
				assert.True(ok)
				assert.Equal(7, metadata.KeysRestored)
				assert.Equal(9, metadata.KeysFound)
			}
		}
		return nil
	})
	assert.Nil(err)
}
