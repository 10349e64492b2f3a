package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/fabwinter/Sydneykids/conversation"
	skerrors "github.com/fabwinter/Sydneykids/errors"
)

// InMemoryStore implements conversation storage using in-memory storage
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*conversation.Record
}

// NewInMemoryStore creates a new in-memory conversation store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*conversation.Record),
	}
}

// Save saves a conversation record to the store
func (s *InMemoryStore) Save(ctx context.Context, record *conversation.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("conversation record cannot be nil: %w", skerrors.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = record.Clone()
	return nil
}

// Load loads a conversation record from the store
func (s *InMemoryStore) Load(ctx context.Context, id string) (*conversation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("conversation %s: %w", id, skerrors.ErrNotFound)
	}

	return record.Clone(), nil
}

// Delete removes a conversation record from the store
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return fmt.Errorf("conversation %s: %w", id, skerrors.ErrNotFound)
	}

	delete(s.records, id)
	return nil
}

// List returns all conversation IDs in the store
func (s *InMemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids, nil
}

// Count returns the number of conversations in the store
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Exists checks if a conversation exists
func (s *InMemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.records[id]
	return exists, nil
}
