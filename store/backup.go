package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/alwitt/gatelink/db"
	"github.com/alwitt/gatelink/models"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// RestoreResult outcome of a backup restore.
//
// A restore with KeysRestored < KeysFound is a partial success, not an
// error; individual key write failures are logged and skipped.
type RestoreResult struct {
	// KeysRestored number of keys successfully written back
	KeysRestored int
	// KeysFound number of keys present in the backup document
	KeysFound int
}

// BackupEngine serializes the entire key-value store into a single document
// and restores it, replacing all state
type BackupEngine interface {
	/*
		CreateBackupDocument snapshot every stored key.

		Values which parse as JSON are carried in decoded form, all others as
		plain strings. An empty store yields a valid backup with empty data.

			@param ctx context.Context - execution context
			@returns the backup document
	*/
	CreateBackupDocument(ctx context.Context) (models.BackupDocument, error)

	/*
		RestoreFromDocument replace all stored state with a backup's content.

		Destructive and non-transactional by design, mirroring the mobile
		platform's storage semantics: the store is cleared first, then each
		pair is written independently, so a failure partway leaves a partial
		restore. The result reports how many pairs made it.

			@param ctx context.Context - execution context
			@param raw []byte - backup file content, either the
			    `{version, timestamp, data}` envelope or the legacy flat map
			@returns restore outcome
	*/
	RestoreFromDocument(ctx context.Context, raw []byte) (RestoreResult, error)
}

// backupEngine implements BackupEngine
type backupEngine struct {
	goutils.Component

	persistence db.Client

	kv KeyValueStore
}

/*
NewBackupEngine define new backup engine

	@param ctx context.Context - execution context
	@param persistence db.Client - persistence layer client
	@param kv KeyValueStore - key-value store adapter
	@returns engine instance
*/
func NewBackupEngine(
	_ context.Context, persistence db.Client, kv KeyValueStore,
) (BackupEngine, error) {
	logTags := log.Fields{"module": "store", "component": "backup-engine"}

	instance := &backupEngine{
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
CreateBackupDocument snapshot every stored key

	@param ctx context.Context - execution context
	@returns the backup document
*/
func (e *backupEngine) CreateBackupDocument(
	ctx context.Context,
) (models.BackupDocument, error) {
	document := models.BackupDocument{
		Version:   models.BackupFormatVersion,
		Timestamp: time.Now().UTC(),
		Data:      map[string]json.RawMessage{},
	}

	if dbErr := e.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			keys, err := e.kv.ListKeys(dbCtx, dbClient)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				// An empty store is a valid, empty backup
				return nil
			}

			values, err := e.kv.GetAll(dbCtx, keys, dbClient)
			if err != nil {
				return err
			}

			for key, value := range values {
				if json.Valid([]byte(value)) {
					document.Data[key] = json.RawMessage(value)
					continue
				}
				encoded, err := json.Marshal(value)
				if err != nil {
					return fmt.Errorf("failed to encode value of key '%s' [%w]", key, err)
				}
				document.Data[key] = json.RawMessage(encoded)
			}
			return nil
		},
	); dbErr != nil {
		return models.BackupDocument{}, fmt.Errorf("failed to create backup [%w]", dbErr)
	}

	return document, nil
}

/*
RestoreFromDocument replace all stored state with a backup's content

	@param ctx context.Context - execution context
	@param raw []byte - backup file content
	@returns restore outcome
*/
func (e *backupEngine) RestoreFromDocument(
	ctx context.Context, raw []byte,
) (RestoreResult, error) {
	logTags := e.NewLogTagsForContext(ctx)

	document, err := models.ParseBackupDocument(raw)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("%w [%s]", ErrInvalidFormat, err.Error())
	}

	result := RestoreResult{KeysFound: len(document.Data)}

	// The store is wiped before any pair is written. Each write below runs
	// in its own transaction, so a failure partway leaves a partial restore.
	if _, err := e.kv.Clear(ctx, nil); err != nil {
		return result, fmt.Errorf("failed to clear store before restore [%w]", err)
	}

	keys := make([]string, 0, len(document.Data))
	for key := range document.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rawValue := document.Data[key]

		// String values are written verbatim; everything else is carried as
		// its JSON encoding
		value := string(rawValue)
		var decoded string
		if err := json.Unmarshal(rawValue, &decoded); err == nil {
			value = decoded
		}

		if err := e.kv.Set(ctx, key, value, nil); err != nil {
			log.WithError(err).WithFields(logTags).
				WithField("key", key).
				Warn("Skipping key which failed to restore")
			continue
		}
		result.KeysRestored++
	}

	if result.KeysRestored == 0 {
		return result, fmt.Errorf("%w", ErrEmptyBackup)
	}

	if dbErr := e.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			return dbClient.RecordBackupRestore(dbCtx, result.KeysRestored, result.KeysFound)
		},
	); dbErr != nil {
		log.WithError(dbErr).WithFields(logTags).Warn("Failed to record restore change event")
	}

	return result, nil
}
