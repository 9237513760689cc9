package store

import "errors"

// ErrNotFound the referenced device ID is not in the device collection
var ErrNotFound = errors.New("device not found")

// ErrInvalidFormat the backup content is not a recognizable backup document
var ErrInvalidFormat = errors.New("invalid backup format")

// ErrEmptyBackup the backup document contained no restorable key-value pairs
var ErrEmptyBackup = errors.New("backup contains no restorable data")
