package snapshot

import (
	"context"
	"maps"
	"sync"
	"time"

	layering "github.com/goliatone/go-flagstate/layering"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and the CLI. Every save gets a
// fresh snapshot id and ETag; a save carrying a stale ETag is rejected.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	snapshot Environment
	meta     Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (Environment, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Environment{}, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return Environment{}, Meta{}, false, nil
	}
	return cloneEnvironment(record.snapshot), cloneMeta(record.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, ref Ref, snapshot Environment, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.records[key]; ok && meta.ETag != "" && meta.ETag != current.meta.ETag {
		return Meta{}, ErrETagMismatch
	}

	saved := cloneMeta(meta)
	saved.SnapshotID = uuid.NewString()
	saved.ETag = uuid.NewString()
	saved.UpdatedAt = s.now().UTC()
	s.records[key] = memoryRecord{snapshot: cloneEnvironment(snapshot), meta: saved}
	return cloneMeta(saved), nil
}

func cloneMeta(meta Meta) Meta {
	out := meta
	out.Extra = maps.Clone(meta.Extra)
	return out
}

func cloneEnvironment(env Environment) Environment {
	return layering.Clone(env)
}
