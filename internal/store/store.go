// Package store persists whole JSON documents under fixed keys. Backends
// implement KV; Documents adds typed loading with a default fallback.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Get when the key has never been written.
var ErrNotFound = errors.New("document not found")

// Document keys, one per persisted entity.
const (
	KeyPrices        = "prices"
	KeyClinics       = "clinics"
	KeyEntries       = "entries"
	KeyCurrentClinic = "current-clinic"
	KeyFilterDate    = "filter-date"
)

// Keys lists every document key in load order.
func Keys() []string {
	return []string{KeyPrices, KeyClinics, KeyEntries, KeyCurrentClinic, KeyFilterDate}
}

// KV is a whole-value key/value store. Put replaces the previous value.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Kinds of backend accepted by config.
const (
	KindMemory   = "memory"
	KindLevelDB  = "leveldb"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)
