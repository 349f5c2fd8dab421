package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Short-lived cache for platform lookups (eg, a guild's channel list fetched over REST). Never used for detection state.
type CacheStore interface {
	Get(ctx context.Context, name, key string) (string, bool, error)
	Set(ctx context.Context, name, key string, val string) error
	Purge(ctx context.Context, name, key string) error
}

// Fetches and decodes a JSON value. A miss returns ok=false and a nil error.
func GetJSON[T any](ctx context.Context, cs CacheStore, name, key string) (T, bool, error) {
	var out T
	raw, ok, err := cs.Get(ctx, name, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, false, fmt.Errorf("decoding cached %s: %w", name, err)
	}
	return out, true, nil
}

func SetJSON(ctx context.Context, cs CacheStore, name, key string, val any) error {
	b, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encoding %s for cache: %w", name, err)
	}
	return cs.Set(ctx, name, key, string(b))
}
