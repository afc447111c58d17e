// Package storage is the record store adapter. It lists evaluation result
// objects in a bucket, fetches them concurrently and decodes them into
// evaluation records.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Object describes one stored evaluation result.
type Object struct {
	Key          string
	ETag         string
	Size         int64
	LastModified time.Time
}

// Backend enumerates and reads objects under a fixed bucket and prefix.
type Backend interface {
	List(ctx context.Context) ([]Object, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Writer stores objects. It is used by the seeding tool, never by queries.
type Writer interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Snapshot is the set of supported objects visible to a single query.
type Snapshot struct {
	Objects []Object
	// Listed counts every object returned by the backend, including keys
	// the codec does not handle.
	Listed int
}

// Generation returns a token that changes whenever any object in the
// snapshot is added, removed or rewritten.
func (s Snapshot) Generation() string {
	h := sha256.New()
	for _, o := range s.Objects {
		h.Write([]byte(o.Key))
		h.Write([]byte{0})
		h.Write([]byte(o.ETag))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(o.Size, 10)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(o.LastModified.UnixNano(), 10)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}
