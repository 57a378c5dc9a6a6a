package store

import (
	"context"
	"database/sql"
	"sync"

	"pdfcrop/types"

	"github.com/google/uuid"
)

// MemoryStore keeps jobs for the lifetime of the process. It is used when no
// Postgres connection is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]types.Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[uuid.UUID]types.Job),
	}
}

func (m *MemoryStore) SaveJob(_ context.Context, job types.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *MemoryStore) GetJobByID(_ context.Context, id uuid.UUID) (*types.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &job, nil
}

func (m *MemoryStore) Init(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
