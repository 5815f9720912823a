package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Documents reads and writes JSON documents on top of a KV.
type Documents struct {
	kv  KV
	log zerolog.Logger
}

func NewDocuments(kv KV, log zerolog.Logger) *Documents {
	return &Documents{kv: kv, log: log}
}

// KV exposes the underlying backend.
func (d *Documents) KV() KV { return d.kv }

// Load decodes the document at key into a T. A missing, unreadable or
// malformed document yields def; the latter two are logged.
func Load[T any](ctx context.Context, d *Documents, key string, def T) T {
	v, found, err := Read[T](ctx, d, key)
	switch {
	case err != nil:
		d.log.Warn().Err(err).Str("key", key).Msg("using default document")
		return def
	case !found:
		return def
	}
	return v
}

// Read decodes the document at key. found is false when the key was never
// written.
func Read[T any](ctx context.Context, d *Documents, key string) (v T, found bool, err error) {
	raw, err := d.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, true, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, true, nil
}

// Save replaces the document at key with v.
func Save[T any](ctx context.Context, d *Documents, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := d.kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
