// Package draft defines the minimal draft record contract shared with the
// surrounding application's key-value store.
//
// The store mechanics live outside this module; the contract here is only
// that a record's payload round-trips through encode/decode unchanged, so an
// in-progress document build can be restored into compose or merge inputs
// byte for byte.
package draft

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one persisted draft.
type Record struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Title      string          `json:"title"`
	LastEdited int64           `json:"lastEdited"` // epoch millis
	Data       json.RawMessage `json:"data"`
}

// New creates a record with a fresh id and the current edit time. The payload
// bytes are stored as given and returned unchanged on decode.
func New(recordType, title string, data []byte) Record {
	return Record{
		ID:         uuid.NewString(),
		Type:       recordType,
		Title:      title,
		LastEdited: time.Now().UnixMilli(),
		Data:       json.RawMessage(data),
	}
}

// Touch updates the last-edited timestamp.
func (r *Record) Touch() {
	r.LastEdited = time.Now().UnixMilli()
}

// Encode serializes the record for persistence.
func (r Record) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft %s: %w", r.ID, err)
	}
	return data, nil
}

// Decode restores a record from its persisted form.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("failed to decode draft record: %w", err)
	}
	return r, nil
}

// Store is the persistence contract the application provides.
type Store interface {
	Put(r Record) error
	Get(id string) (Record, error)
	List() ([]Record, error)
	Delete(id string) error
}

// MemStore is an in-memory Store, used in tests and as a reference
// implementation. Safe for concurrent use.
type MemStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]Record)}
}

// Put stores or replaces a record.
func (s *MemStore) Put(r Record) error {
	if r.ID == "" {
		return fmt.Errorf("draft record has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r
	return nil
}

// Get returns the record with the given id.
func (s *MemStore) Get(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("draft %s not found", id)
	}
	return r, nil
}

// List returns all records, most recently edited first.
func (s *MemStore) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastEdited > out[j].LastEdited })
	return out, nil
}

// Delete removes a record; deleting an absent id is not an error.
func (s *MemStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}
