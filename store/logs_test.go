package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alwitt/gatelink/store"
	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestActivityLogStoreAppendAndRead verifies appending to and reading from
// log partitions.
func TestActivityLogStoreAppendAndRead(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	client, kv := defineTestPersistence(t)
	uut, err := store.NewActivityLogStore(utCtx, client, kv)
	assert.Nil(err)

	deviceID := uuid.NewString()

	// -------------------------------------------------------------------------
	// 1 – Empty partitions read as empty
	assert.Empty(uut.GetEntries(utCtx, ""))
	assert.Empty(uut.GetEntries(utCtx, deviceID))

	// -------------------------------------------------------------------------
	// 2 – Append to the legacy global partition
	entry, err := uut.AddEntry(
		utCtx, "", store.ActionGateOpen, "Opened gate/activated relay (ON)", true,
	)
	assert.Nil(err)
	assert.NotEmpty(entry.ID)

	entries := uut.GetEntries(utCtx, "")
	assert.Len(entries, 1)
	assert.Equal(entry.ID, entries[0].ID)
	assert.Equal(store.ActionGateOpen, entries[0].Action)
	assert.Equal("Opened gate/activated relay (ON)", entries[0].Details)
	assert.True(entries[0].Success)
	assert.Empty(entries[0].DeviceID)

	// 3 – Device partitions are independent of the global one
	deviceEntry, err := uut.AddEntry(
		utCtx, deviceID, store.ActionStatusCheck, "Requested status report", false,
	)
	assert.Nil(err)
	assert.Equal(deviceID, deviceEntry.DeviceID)

	assert.Len(uut.GetEntries(utCtx, ""), 1)
	entries = uut.GetEntries(utCtx, deviceID)
	assert.Len(entries, 1)
	assert.False(entries[0].Success)

	// -------------------------------------------------------------------------
	// 4 – Entries come back newest first
	for idx := 0; idx < 5; idx++ {
		_, err := uut.AddEntry(
			utCtx, deviceID, store.ActionGateOpen, fmt.Sprintf("gesture %d", idx), true,
		)
		assert.Nil(err)
	}
	entries = uut.GetEntries(utCtx, deviceID)
	assert.Len(entries, 6)
	for idx := 1; idx < len(entries); idx++ {
		assert.False(entries[idx].Timestamp.After(entries[idx-1].Timestamp))
	}

	// -------------------------------------------------------------------------
	// 5 – Clearing one partition leaves the other intact
	assert.Nil(uut.ClearEntries(utCtx, deviceID))
	assert.Empty(uut.GetEntries(utCtx, deviceID))
	assert.Len(uut.GetEntries(utCtx, ""), 1)
}

// TestActivityLogStorePartitionCap verifies partitions never exceed their
// maximum retained size, keeping the most recent entries.
func TestActivityLogStorePartitionCap(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	client, kv := defineTestPersistence(t)
	uut, err := store.NewActivityLogStore(utCtx, client, kv)
	assert.Nil(err)

	deviceID := uuid.NewString()

	total := store.MaxLogEntriesPerPartition + 25
	appendedIDs := []string{}
	for idx := 0; idx < total; idx++ {
		entry, err := uut.AddEntry(
			utCtx, deviceID, store.ActionGateOpen, fmt.Sprintf("gesture %d", idx), true,
		)
		assert.Nil(err)
		appendedIDs = append(appendedIDs, entry.ID)
	}

	entries := uut.GetEntries(utCtx, deviceID)
	assert.Len(entries, store.MaxLogEntriesPerPartition)

	// The retained entries are exactly the most recently appended ones
	retained := map[string]bool{}
	for _, entry := range entries {
		retained[entry.ID] = true
	}
	for _, id := range appendedIDs[total-store.MaxLogEntriesPerPartition:] {
		assert.True(retained[id])
	}
	for _, id := range appendedIDs[:total-store.MaxLogEntriesPerPartition] {
		assert.False(retained[id])
	}
}

// TestActivityLogStoreLegacyMigration verifies the one-time copy of the
// legacy global partition into a device's partition.
func TestActivityLogStoreLegacyMigration(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	client, kv := defineTestPersistence(t)
	uut, err := store.NewActivityLogStore(utCtx, client, kv)
	assert.Nil(err)

	device1 := uuid.NewString()
	device2 := uuid.NewString()

	// 1 – Nothing to migrate without a legacy partition
	migrated, err := uut.MigrateLegacyLogs(utCtx, device1)
	assert.Nil(err)
	assert.False(migrated)

	// 2 – Seed the legacy partition, then migrate into device 1
	legacyEntry, err := uut.AddEntry(
		utCtx, "", store.ActionPasswordChange, "Changed device password", true,
	)
	assert.Nil(err)

	migrated, err = uut.MigrateLegacyLogs(utCtx, device1)
	assert.Nil(err)
	assert.True(migrated)

	entries := uut.GetEntries(utCtx, device1)
	assert.Len(entries, 1)
	assert.Equal(legacyEntry.ID, entries[0].ID)

	// The legacy partition is kept for yet-unmigrated devices
	assert.Len(uut.GetEntries(utCtx, ""), 1)

	// 3 – Migration is idempotent
	migrated, err = uut.MigrateLegacyLogs(utCtx, device1)
	assert.Nil(err)
	assert.False(migrated)
	assert.Len(uut.GetEntries(utCtx, device1), 1)

	// 4 – A second device can still claim the legacy partition afterwards
	migrated, err = uut.MigrateLegacyLogs(utCtx, device2)
	assert.Nil(err)
	assert.True(migrated)
	assert.Len(uut.GetEntries(utCtx, device2), 1)
}
