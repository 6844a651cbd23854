package totpflow

import (
	"context"
	"sync"
)

// MemoryStore is an in-process [Store] for tests and examples. Records are
// kept forever; deactivation is the only terminal state.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// StoreTOTP creates or replaces the record.
func (s *MemoryStore) StoreTOTP(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Hash] = record
	return nil
}

// HandleTOTP reads the record by hash, applying the patch first when one is
// given. A missing record yields (nil, nil).
func (s *MemoryStore) HandleTOTP(_ context.Context, hash string, patch *RecordPatch) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[hash]
	if !ok {
		return nil, nil
	}

	if patch != nil {
		if patch.Active != nil {
			record.Active = *patch.Active
		}
		if patch.Attempts != nil {
			record.Attempts = *patch.Attempts
		}
		if patch.ExpiresAt != nil {
			record.ExpiresAt = patch.ExpiresAt
		}
		s.records[hash] = record
	}

	out := record
	return &out, nil
}

// Len reports how many records the store holds.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
