package card

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/occlusionlab/occlude/pkg/mask"
	"github.com/occlusionlab/occlude/pkg/observability"
)

// ChildStore is the slice of persistence the synchronizer needs: reading
// and upserting child records and their scheduling state. The full store
// lives in pkg/store; the synchronizer only mutates in-memory state and
// leaves durable persistence to the caller.
type ChildStore interface {
	// Children returns every child record of the parent, retired included.
	Children(ctx context.Context, parentID string) ([]ChildRecord, error)

	// PutChild upserts a child record by id.
	PutChild(ctx context.Context, child ChildRecord) error

	// Scheduling returns the scheduling record for a card, if present.
	Scheduling(ctx context.Context, cardID string) (SchedulingRecord, bool, error)

	// PutScheduling upserts a scheduling record.
	PutScheduling(ctx context.Context, rec SchedulingRecord) error
}

// Syncer derives reviewable child records from a parent's saved rectangle
// set. Running it twice with the same inputs yields the identical
// active-child-id set and never re-retires an active child.
type Syncer struct {
	store  ChildStore
	logger *log.Logger
}

// NewSyncer creates a synchronizer over the given store. A nil logger
// falls back to log.Default().
func NewSyncer(store ChildStore, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.Default()
	}
	return &Syncer{store: store, logger: logger}
}

// SyncResult reports what one synchronization pass did.
type SyncResult struct {
	Created []string // child ids created this pass
	Updated []string // existing child ids refreshed (including reactivated)
	Retired []string // child ids newly flagged retired
	Active  []string // the full active-child-id set after the pass
}

// Sync reconciles the parent's children with its saved definition:
//
//  1. Rectangles are grouped by normalized group key.
//  2. Each group is upserted as a child with the deterministic id
//     mask.StableChildID(parent.ID, key), carrying the group's rect ids,
//     the definition's image ref and mask mode (last save wins, even for a
//     retired child reactivated by group-key reuse), the parent's display
//     fields, and refreshed timestamps.
//  3. Any previously existing child whose id is not among the newly
//     computed ids is flagged retired. Children are never deleted, so
//     review history survives group-key reuse.
//  4. Every active child is guaranteed a scheduling record.
func (s *Syncer) Sync(ctx context.Context, parent Card, def ParentDefinition, now time.Time) (SyncResult, error) {
	start := time.Now()
	res, err := s.sync(ctx, parent, def, now)
	observability.Sync().OnSyncComplete(ctx, parent.ID, len(res.Created), len(res.Updated), len(res.Retired), time.Since(start), err)
	return res, err
}

func (s *Syncer) sync(ctx context.Context, parent Card, def ParentDefinition, now time.Time) (SyncResult, error) {
	var res SyncResult

	def = def.Clamped()

	// Group rect ids by normalized key, first-appearance order.
	groups := map[string][]string{}
	keys := def.GroupKeys()
	for _, r := range def.Rects {
		k := mask.NormaliseGroupKey(r.GroupKey)
		groups[k] = append(groups[k], r.ID)
	}

	existing, err := s.store.Children(ctx, parent.ID)
	if err != nil {
		return res, err
	}
	byID := make(map[string]ChildRecord, len(existing))
	for _, c := range existing {
		byID[c.ID] = c
	}

	active := map[string]bool{}
	for _, key := range keys {
		id := mask.StableChildID(parent.ID, key)
		active[id] = true

		child, found := byID[id]
		if !found {
			child = ChildRecord{ID: id, CreatedAt: now}
			res.Created = append(res.Created, id)
		} else {
			res.Updated = append(res.Updated, id)
		}

		child.Type = TypeChild
		child.ParentID = parent.ID
		child.GroupKey = key
		child.RectIDs = groups[key]
		child.MaskMode = def.MaskMode
		child.ImageRef = def.ImageRef
		child.Retired = false
		child.Front = parent.Front
		child.Back = parent.Back
		child.Deck = parent.Deck
		child.UpdatedAt = now

		if err := s.store.PutChild(ctx, child); err != nil {
			return res, err
		}

		if _, ok, err := s.store.Scheduling(ctx, id); err != nil {
			return res, err
		} else if !ok {
			if err := s.store.PutScheduling(ctx, NewScheduling(id, now)); err != nil {
				return res, err
			}
		}

		res.Active = append(res.Active, id)
	}

	// Soft-retire children whose group disappeared. Already-retired
	// children are left untouched.
	for _, c := range existing {
		if active[c.ID] || c.Retired {
			continue
		}
		c.Retired = true
		c.UpdatedAt = now
		if err := s.store.PutChild(ctx, c); err != nil {
			return res, err
		}
		res.Retired = append(res.Retired, c.ID)
	}

	s.logger.Debug("synchronized children",
		"parent", parent.ID,
		"created", len(res.Created),
		"updated", len(res.Updated),
		"retired", len(res.Retired))

	return res, nil
}
