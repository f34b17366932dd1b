package cache

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/civicsignal/parliament-mcp/internal/apperr"
	"github.com/civicsignal/parliament-mcp/internal/config"
)

// Store is a durable byte-key KV store used for expensive aggregates that
// should survive restarts. Implementations flush to disk before Put
// returns. Freshness is the reader's concern: values carry their own
// stored-at timestamp via the envelope helpers below.
type Store interface {
	// Get returns the raw value for key, or false when absent.
	Get(key []byte) ([]byte, bool, error)

	// Put durably stores value under key.
	Put(key, value []byte) error

	Close() error
}

// envelope wraps every durable value with its write time so that reads
// can apply a TTL without a background sweeper.
type envelope struct {
	StoredAt int64           `json:"stored_at"` // unix seconds
	Payload  json.RawMessage `json:"payload"`
}

// Open constructs the configured durable backend under cfg.Cache.DataPath.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Cache.StorageEngine {
	case "sqlite":
		return OpenSQLite(filepath.Join(cfg.Cache.DataPath, "parliament-cache.db"))
	case "bolt":
		return OpenBolt(filepath.Join(cfg.Cache.DataPath, "parliament-cache.bolt"))
	default:
		return nil, apperr.Configuration("unknown storage engine %q", cfg.Cache.StorageEngine)
	}
}

// Write stores value under key wrapped in a timestamped envelope.
func Write(s Store, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return apperr.Internalf(err, "encode durable cache payload for %q", key)
	}
	raw, err := json.Marshal(envelope{
		StoredAt: time.Now().Unix(),
		Payload:  payload,
	})
	if err != nil {
		return apperr.Internalf(err, "encode durable cache envelope for %q", key)
	}
	return s.Put([]byte(key), raw)
}

// Read loads the value stored under key if it is younger than ttl.
// A missing key, a stale entry, or an undecodable envelope all report a
// miss; only storage-level failures surface as errors.
func Read[T any](s Store, key string, ttl time.Duration) (T, bool, error) {
	var zero T

	raw, ok, err := s.Get([]byte(key))
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, false, nil
	}
	age := time.Since(time.Unix(env.StoredAt, 0))
	if age > ttl {
		return zero, false, nil
	}

	var value T
	if err := json.Unmarshal(env.Payload, &value); err != nil {
		return zero, false, nil
	}
	return value, true, nil
}
