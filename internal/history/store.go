// Package history keeps the ordered, in-memory collection of scan records
// known to the current session.
package history

import (
	"sync"

	"github.com/scanwatch/scanwatch/internal/scan"
)

// Store holds one record per scan id. Records first seen via a fetch keep the
// fetch order; records first seen via a push event are appended at receipt
// time. Records are never deleted within a session.
//
// The synchronizer is the only writer; readers always get copies.
type Store struct {
	mu      sync.RWMutex
	order   []scan.ID
	records map[scan.ID]scan.Record
}

func NewStore() *Store {
	return &Store{records: make(map[scan.ID]scan.Record)}
}

// Upsert merges r into the store. It is idempotent, and partial: zero-valued
// fields of r never revert previously known fields.
func (s *Store) Upsert(r scan.Record) {
	if r.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[r.ID]
	if !ok {
		s.order = append(s.order, r.ID)
		s.records[r.ID] = r
		return
	}
	s.records[r.ID] = merge(existing, r)
}

// ReplaceAll swaps the entire store content for the fetched snapshot. Fetches
// are authoritative, so this is a full replace, not a merge.
func (s *Store) ReplaceAll(records []scan.Record) {
	order := make([]scan.ID, 0, len(records))
	byID := make(map[scan.ID]scan.Record, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		if _, seen := byID[r.ID]; !seen {
			order = append(order, r.ID)
		}
		byID[r.ID] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = order
	s.records = byID
}

// Get returns the record for id, if known.
func (s *Store) Get(id scan.ID) (scan.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	return r, ok
}

// All returns a snapshot of every record in insertion order.
func (s *Store) All() []scan.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scan.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func merge(existing, incoming scan.Record) scan.Record {
	out := existing
	if incoming.Host != "" {
		out.Host = incoming.Host
	}
	if incoming.Status != "" {
		out.Status = incoming.Status
	}
	if !incoming.ScanTime.IsZero() {
		out.ScanTime = incoming.ScanTime
	}
	if incoming.Results != nil {
		out.Results = incoming.Results
	}
	return out
}
