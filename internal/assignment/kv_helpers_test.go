package assignment

import (
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
)

type kvProbe struct {
	kv jetstream.KeyValue
}

func (k *kvProbe) get(t *testing.T, key string) []byte {
	t.Helper()

	entry, err := k.kv.Get(t.Context(), key)
	require.NoError(t, err)

	return entry.Value()
}

func (k *kvProbe) exists(t *testing.T, key string) bool {
	t.Helper()

	_, err := k.kv.Get(t.Context(), key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return false
	}
	require.NoError(t, err)

	return true
}
