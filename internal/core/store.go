package core

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// RecordStore holds processed batches in memory, keyed by
// "{department}-{project}-{unix millis}".
//
// Batches are written once and never updated. There is no deletion: the
// store grows for the life of the process.
type RecordStore struct {
	mu      sync.RWMutex
	order   []string // batch keys in insertion order
	batches map[string][]DataRecord
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		batches: make(map[string][]DataRecord),
	}
}

// Put stores a batch and returns the key used. A key already taken within
// the same millisecond gets a numeric suffix rather than overwriting.
func (s *RecordStore) Put(department, project string, at time.Time, records []DataRecord) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := fmt.Sprintf("%s-%s-%d", department, project, at.UnixMilli())
	key := base
	for n := 1; ; n++ {
		if _, taken := s.batches[key]; !taken {
			break
		}
		key = fmt.Sprintf("%s-%d", base, n)
	}

	batch := make([]DataRecord, len(records))
	copy(batch, records)
	s.batches[key] = batch
	s.order = append(s.order, key)
	return key
}

// Batch returns the records stored under key.
func (s *RecordStore) Batch(key string) ([]DataRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.batches[key]
	if !ok {
		return nil, false
	}
	out := make([]DataRecord, len(batch))
	copy(out, batch)
	return out, true
}

// Keys returns batch keys in insertion order.
func (s *RecordStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Records flattens every batch, keeping records that match both filters.
// An empty filter matches everything. Results are newest first; records
// with equal timestamps keep insertion order.
func (s *RecordStore) Records(department, project string) []DataRecord {
	s.mu.RLock()
	out := []DataRecord{}
	for _, key := range s.order {
		for _, rec := range s.batches[key] {
			if department != "" && rec.Department != department {
				continue
			}
			if project != "" && rec.Project != project {
				continue
			}
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Stats aggregates status counts and a category histogram over the
// records of department (all records when empty).
func (s *RecordStore) Stats(department string) StoreStats {
	records := s.Records(department, "")

	stats := StoreStats{
		TotalRecords: len(records),
		Categories:   make(map[string]int),
	}
	for _, rec := range records {
		switch rec.ValidationStatus {
		case StatusValid:
			stats.ValidRecords++
		case StatusInvalid:
			stats.InvalidRecords++
		case StatusWarning:
			stats.WarningRecords++
		}
		stats.Categories[rec.Category]++
	}
	return stats
}
