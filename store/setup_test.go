package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alwitt/gatelink/db"
	"github.com/alwitt/gatelink/store"
	"github.com/apex/log"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

// defineTestPersistence prepare a fresh sqlite-backed persistence client and
// key-value store adapter for one test
func defineTestPersistence(t *testing.T) (db.Client, store.KeyValueStore) {
	assert := assert.New(t)

	utCtx := context.Background()

	// Create a unique temporary DB file for this test
	testDB := fmt.Sprintf("/tmp/gatelink_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	client, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	// Create database tables
	assert.Nil(client.RunSQLInTransaction(utCtx, db.DefineTables))

	kv, err := store.NewKeyValueStore(utCtx, client)
	assert.Nil(err)

	return client, kv
}
