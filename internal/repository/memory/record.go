package memory

import (
	"context"
	"sync"

	"github.com/veristore/veristore-server/internal/model"
)

var _ model.RecordStore = (*RecordRepository)(nil)

// RecordRepository is a process-local RecordStore backed by a map.
type RecordRepository struct {
	mu      sync.RWMutex
	records map[string]model.VerificationRecord
}

// NewRecordRepository creates an empty in-memory record store.
func NewRecordRepository() *RecordRepository {
	return &RecordRepository{
		records: make(map[string]model.VerificationRecord),
	}
}

func (r *RecordRepository) Get(_ context.Context, key string) (model.VerificationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[key]
	if !ok {
		return model.VerificationRecord{}, model.ErrNotFound
	}
	return record, nil
}

func (r *RecordRepository) Put(_ context.Context, key string, record model.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[key] = record
	return nil
}

// Delete removes the entry at key. Deleting an absent key is a no-op.
func (r *RecordRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, key)
	return nil
}

// Len reports the number of occupied entries.
func (r *RecordRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}
