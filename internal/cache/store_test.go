package cache

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	boltStore, err := OpenBolt(filepath.Join(dir, "cache.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { boltStore.Close() })

	sqliteStore, err := OpenSQLite(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{"bolt": boltStore, "sqlite": sqliteStore}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			want := fixture{Topic: "climate change", Count: 7}
			require.NoError(t, Write(s, "research:climate", want))

			got, ok, err := Read[fixture](s, "research:climate", time.Hour)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestStoreMissingKey(t *testing.T) {
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := Read[fixture](s, "nope", time.Hour)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreStaleEntryIsMiss(t *testing.T) {
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			// Hand-build an envelope stored two hours ago.
			payload, err := json.Marshal(fixture{Topic: "old"})
			require.NoError(t, err)
			raw, err := json.Marshal(envelope{
				StoredAt: time.Now().Add(-2 * time.Hour).Unix(),
				Payload:  payload,
			})
			require.NoError(t, err)
			require.NoError(t, s.Put([]byte("stale"), raw))

			_, ok, err := Read[fixture](s, "stale", time.Hour)
			require.NoError(t, err)
			assert.False(t, ok)

			// A generous TTL still admits it.
			got, ok, err := Read[fixture](s, "stale", 3*time.Hour)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "old", got.Topic)
		})
	}
}

func TestStoreCorruptEnvelopeIsMiss(t *testing.T) {
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put([]byte("bad"), []byte("not json")))
			_, ok, err := Read[fixture](s, "bad", time.Hour)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Write(s, "k", fixture{Count: 1}))
			require.NoError(t, Write(s, "k", fixture{Count: 2}))

			got, ok, err := Read[fixture](s, "k", time.Hour)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 2, got.Count)
		})
	}
}
