package storage

import (
	"context"
	"crypto/md5" //nolint:gosec // ETag compatibility, not security
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryBackend is an in-process Backend used for local runs and tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	prefix  string
	objects map[string]memoryObject
	now     func() time.Time
}

type memoryObject struct {
	data []byte
	meta Object
}

// NewMemoryBackend returns an empty backend that lists keys under prefix.
func NewMemoryBackend(prefix string) *MemoryBackend {
	return &MemoryBackend{
		prefix:  prefix,
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

// Put stores a copy of data under key.
func (m *MemoryBackend) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sum := md5.Sum(data) //nolint:gosec // ETag compatibility
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{
		data: buf,
		meta: Object{
			Key:          key,
			ETag:         hex.EncodeToString(sum[:]),
			Size:         int64(len(buf)),
			LastModified: m.now(),
		},
	}
	return nil
}

// Delete removes key if present.
func (m *MemoryBackend) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
}

// List returns every object under the prefix.
func (m *MemoryBackend) List(ctx context.Context) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Object, 0, len(m.objects))
	for key, obj := range m.objects {
		if strings.HasPrefix(key, m.prefix) {
			out = append(out, obj.meta)
		}
	}
	return out, nil
}

// Fetch returns a copy of the object's bytes.
func (m *MemoryBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, nil
}
