/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import (
	"context"
	"sort"
	"sync"

	"github.com/suparena/entitykv/datastore"
)

// EntityCounters are the call and row counts of one entity.
type EntityCounters struct {
	LoadCalls        uint64 `json:"loadCalls"`
	SaveCalls        uint64 `json:"saveCalls"`
	DeleteCalls      uint64 `json:"deleteCalls"`
	RowsLoaded       uint64 `json:"rowsLoaded"`
	RowsSaved        uint64 `json:"rowsSaved"`
	RowsDeleted      uint64 `json:"rowsDeleted"`
	IndexInserts     uint64 `json:"indexInserts"`
	IndexRemoves     uint64 `json:"indexRemoves"`
	UniqueViolations uint64 `json:"uniqueViolations"`
}

// StoreGauge is the last observed size of one store.
type StoreGauge struct {
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Entities map[string]EntityCounters `json:"entities"`
	Stores   map[string]StoreGauge     `json:"stores"`
}

// EntityNames returns the entity paths in the snapshot, sorted.
func (s Snapshot) EntityNames() []string {
	out := make([]string, 0, len(s.Entities))
	for k := range s.Entities {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// StoreNames returns the store names in the snapshot, sorted.
func (s Snapshot) StoreNames() []string {
	out := make([]string, 0, len(s.Stores))
	for k := range s.Stores {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Metrics holds resettable counters. A nil *Metrics discards every update.
type Metrics struct {
	mu       sync.Mutex
	entities map[string]*EntityCounters
	stores   map[string]StoreGauge
}

// New returns empty metrics.
func New() *Metrics {
	return &Metrics{
		entities: make(map[string]*EntityCounters),
		stores:   make(map[string]StoreGauge),
	}
}

func (m *Metrics) update(entity string, fn func(c *EntityCounters)) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.entities[entity]
	if !ok {
		c = &EntityCounters{}
		m.entities[entity] = c
	}
	fn(c)
}

// Load records one load call returning rows rows.
func (m *Metrics) Load(entity string, rows int) {
	m.update(entity, func(c *EntityCounters) {
		c.LoadCalls++
		c.RowsLoaded += uint64(rows)
	})
}

// Save records one save call writing rows rows.
func (m *Metrics) Save(entity string, rows int) {
	m.update(entity, func(c *EntityCounters) {
		c.SaveCalls++
		c.RowsSaved += uint64(rows)
	})
}

// Delete records one delete call removing rows rows.
func (m *Metrics) Delete(entity string, rows int) {
	m.update(entity, func(c *EntityCounters) {
		c.DeleteCalls++
		c.RowsDeleted += uint64(rows)
	})
}

// Index records index entries added and removed.
func (m *Metrics) Index(entity string, inserted, removed int) {
	if inserted == 0 && removed == 0 {
		return
	}
	m.update(entity, func(c *EntityCounters) {
		c.IndexInserts += uint64(inserted)
		c.IndexRemoves += uint64(removed)
	})
}

// UniqueViolation records a write rejected by a unique index.
func (m *Metrics) UniqueViolation(entity string) {
	m.update(entity, func(c *EntityCounters) { c.UniqueViolations++ })
}

// Refresh replaces the store gauges with the current sizes of every opened
// store in reg.
func (m *Metrics) Refresh(ctx context.Context, reg *datastore.Registry) error {
	if m == nil {
		return nil
	}
	stats, err := reg.Stats(ctx)
	if err != nil {
		return err
	}
	gauges := make(map[string]StoreGauge, len(stats))
	for _, st := range stats {
		gauges[st.Name] = StoreGauge{Entries: st.Entries, Bytes: st.Bytes}
	}
	m.mu.Lock()
	m.stores = gauges
	m.mu.Unlock()
	return nil
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Entities: make(map[string]EntityCounters),
		Stores:   make(map[string]StoreGauge),
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, c := range m.entities {
		snap.Entities[k] = *c
	}
	for k, g := range m.stores {
		snap.Stores[k] = g
	}
	return snap
}

// Reset zeroes every counter and forgets store gauges.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities = make(map[string]*EntityCounters)
	m.stores = make(map[string]StoreGauge)
}
