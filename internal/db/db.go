package db

import (
	"context"
	"time"
)

// Store is everything the docdedup repositories need from Valkey/Redis.
// Repositories declare their own narrow subsets; only the composition root sees Store.
//
//nolint:interfacebloat // facade, consumers depend on sub-interfaces
type Store interface {
	Pinger
	JSONStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore holds record documents.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	// JSONGet returns the whole document at key, or ErrKeyNotFound.
	JSONGet(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
}

// KVStore holds fingerprints, blobs, campaigns and the index dimension marker.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetNX stores value only when key is absent. ttl <= 0 means no expiry.
	// Returns false without error when the key already exists.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexManager creates the record vector index.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs KNN, listing and count queries against an FT index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchList(ctx context.Context, q *ListQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index string, filter *TagFilter) (int, error)
}
