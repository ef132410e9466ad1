package kvutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/nats-io/nats.go/jetstream"
)

// PutJSON marshals v and stores it under key.
//
// Returns:
//   - uint64: Revision of the written entry
//   - error: Marshal or KV failure
func PutJSON(ctx context.Context, kv jetstream.KeyValue, key string, v any) (uint64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	rev, err := kv.Put(ctx, key, data)
	if err != nil {
		return 0, fmt.Errorf("failed to put %s: %w", key, err)
	}

	return rev, nil
}

// GetJSON reads key and unmarshals it into v.
//
// A missing key returns an error wrapping jetstream.ErrKeyNotFound.
func GetJSON(ctx context.Context, kv jetstream.KeyValue, key string, v any) error {
	entry, err := kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(entry.Value(), v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	return nil
}

// KeysMatching lists the keys matching the subject filter, sorted.
//
// The filter is evaluated by the server, so "*" matches exactly one token and
// ">" matches one or more trailing tokens. An empty bucket yields no keys and
// no error.
func KeysMatching(ctx context.Context, kv jetstream.KeyValue, filter string) ([]string, error) {
	lister, err := kv.ListKeysFiltered(ctx, filter)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list KV keys matching %s: %w", filter, err)
	}

	var out []string
	for k := range lister.Keys() {
		out = append(out, k)
	}

	// The lister stops early on cancellation, leaving a partial list.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to list KV keys matching %s: %w", filter, err)
	}
	sort.Strings(out)

	return out, nil
}

// KeysWithPrefix lists the keys below prefix, sorted.
//
// prefix must end with the "." token separator; it is matched on whole
// tokens, so "tables." matches "tables.a" and "tables.a.b" but not "tablesx".
func KeysWithPrefix(ctx context.Context, kv jetstream.KeyValue, prefix string) ([]string, error) {
	return KeysMatching(ctx, kv, prefix+">")
}
