// Package store persists the service's collections as JSON documents in a
// key-value store. Two backends exist, a local sqlite file and redis.
package store

import (
	"context"
	"errors"
)

// Collection keys.
const (
	KeyReminders   = "medremind:reminders"
	KeyMedications = "medremind:medications"
)

// ErrKeyNotFound is returned by Get when the key has no value.
var ErrKeyNotFound = errors.New("key not found")

// KVStore is the persistence boundary. Values are JSON documents; Get and
// Set are atomic per key.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
