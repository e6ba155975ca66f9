// Package store provides persistence backends for occlusion card state.
//
// Three maps are persisted, keyed by card id: parent definitions (image +
// rectangles), card records (parents and derived children), and scheduling
// state. The [Store] interface is what the editor and synchronizer consume;
// implementations exist for different deployments:
//
//   - [Memory]: in-memory storage for development and tests
//   - [File]: single JSON document on disk for CLI usage
//   - [Redis]: Redis-backed storage for shared deployments
//   - [Mongo]: MongoDB-backed storage
//
// # Persistence Model
//
// Mutations happen against the store's working state; Persist flushes that
// state durably. A failed Persist leaves the working state (and the editing
// session that produced it) untouched, so a save can be retried without
// losing edits. Backends whose writes are already durable (Redis, Mongo)
// implement Persist as a flush barrier only.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/observability"
)

// Store is the persistence surface for occlusion state.
type Store interface {
	card.ChildStore

	// ParentDefinition returns the occlusion definition for a parent card.
	ParentDefinition(ctx context.Context, parentID string) (card.ParentDefinition, bool, error)

	// PutParentDefinition upserts a parent's occlusion definition.
	PutParentDefinition(ctx context.Context, parentID string, def card.ParentDefinition) error

	// Parent returns a parent card record.
	Parent(ctx context.Context, id string) (card.Card, bool, error)

	// PutParent upserts a parent card record.
	PutParent(ctx context.Context, c card.Card) error

	// ParentIDs lists every parent card id with a stored definition.
	ParentIDs(ctx context.Context) ([]string, error)

	// Persist makes the working state durable.
	Persist(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Memory is an in-memory store for development and tests.
// The zero value is not usable; create one with NewMemory.
type Memory struct {
	mu       sync.RWMutex
	defs     map[string]card.ParentDefinition
	parents  map[string]card.Card
	children map[string]card.ChildRecord
	sched    map[string]card.SchedulingRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		defs:     map[string]card.ParentDefinition{},
		parents:  map[string]card.Card{},
		children: map[string]card.ChildRecord{},
		sched:    map[string]card.SchedulingRecord{},
	}
}

// ParentDefinition implements Store.
func (m *Memory) ParentDefinition(ctx context.Context, parentID string) (card.ParentDefinition, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.defs[parentID]
	return def, ok, nil
}

// PutParentDefinition implements Store.
func (m *Memory) PutParentDefinition(ctx context.Context, parentID string, def card.ParentDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defs[parentID] = def
	return nil
}

// Parent implements Store.
func (m *Memory) Parent(ctx context.Context, id string) (card.Card, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.parents[id]
	return c, ok, nil
}

// PutParent implements Store.
func (m *Memory) PutParent(ctx context.Context, c card.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parents[c.ID] = c
	return nil
}

// ParentIDs implements Store. IDs are returned in unspecified order.
func (m *Memory) ParentIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.defs))
	for id := range m.defs {
		ids = append(ids, id)
	}
	return ids, nil
}

// Children implements card.ChildStore, returning retired children as well.
func (m *Memory) Children(ctx context.Context, parentID string) ([]card.ChildRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []card.ChildRecord
	for _, c := range m.children {
		if c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Child returns one child record by id.
func (m *Memory) Child(ctx context.Context, id string) (card.ChildRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.children[id]
	return c, ok, nil
}

// PutChild implements card.ChildStore.
func (m *Memory) PutChild(ctx context.Context, child card.ChildRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.children[child.ID] = child
	return nil
}

// Scheduling implements card.ChildStore.
func (m *Memory) Scheduling(ctx context.Context, cardID string) (card.SchedulingRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sched[cardID]
	return rec, ok, nil
}

// PutScheduling implements card.ChildStore.
func (m *Memory) PutScheduling(ctx context.Context, rec card.SchedulingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sched[rec.CardID] = rec
	return nil
}

// Persist implements Store. Memory has no durable form; the call only
// reports timing through the store hooks so tests can observe save flows.
func (m *Memory) Persist(ctx context.Context) error {
	start := time.Now()
	observability.Store().OnPersist(ctx, "memory", time.Since(start), nil)
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
