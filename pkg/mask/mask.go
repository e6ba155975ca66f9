// Package mask provides group-key and identifier utilities for occlusion
// rectangles.
//
// Rectangles are partitioned into groups by a user-assigned key; each group
// becomes one reviewable child card. The functions here keep that mapping
// deterministic: identical (parent, group) inputs always produce the same
// child id, which is what makes the synchronizer's upsert-and-retire cycle
// idempotent.
package mask

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultGroupKey is the group assigned when the user supplies no label.
const DefaultGroupKey = "1"

// childIDSep separates the parent id from the group key in child ids. The
// marker is distinctive enough that ordinary parent ids and group keys will
// not collide with composite ids.
const childIDSep = "::io::"

// NormaliseGroupKey trims surrounding whitespace from raw and coerces the
// empty result to DefaultGroupKey. Persisted rectangles always carry a
// non-empty group key.
func NormaliseGroupKey(raw string) string {
	k := strings.TrimSpace(raw)
	if k == "" {
		return DefaultGroupKey
	}
	return k
}

// StableChildID derives the deterministic child card id for a group of
// rectangles under one parent. Identical inputs always yield the identical
// id, and distinct group keys under one parent never collide.
func StableChildID(parentID, groupKey string) string {
	return parentID + childIDSep + NormaliseGroupKey(groupKey)
}

// ParseChildID splits a composite child id back into its parent id and
// group key. ok is false for ids that are not child ids.
func ParseChildID(id string) (parentID, groupKey string, ok bool) {
	i := strings.Index(id, childIDSep)
	if i < 0 {
		return "", "", false
	}
	return id[:i], id[i+len(childIDSep):], true
}

// GroupKeyer is anything carrying a group key. It lets NextAutoGroupKey
// scan rectangle slices without depending on the card package.
type GroupKeyer interface {
	Group() string
}

// NextAutoGroupKey returns the group key to assign to a freshly drawn
// rectangle: one past the highest numeric key already in use, or
// DefaultGroupKey when none exists. Non-numeric keys are ignored, so a
// deck mixing labels like "heart" with numbered groups still auto-numbers
// sensibly. Each new rectangle landing in its own group means one drawn
// region becomes one reviewable card unless the user merges it explicitly.
func NextAutoGroupKey[T GroupKeyer](existing []T) string {
	max := 0
	for _, r := range existing {
		n, err := strconv.Atoi(NormaliseGroupKey(r.Group()))
		if err != nil || n <= 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return DefaultGroupKey
	}
	return strconv.Itoa(max + 1)
}

// IsMaskMode reports whether v is a recognised mask mode. Only "solo" and
// "all" are admitted; anything else (including the empty string) is not a
// mode.
func IsMaskMode(v string) bool {
	return v == "solo" || v == "all"
}

// NewRectID generates a locally-unique rectangle id. Uniqueness within one
// editing session is all that is required; a UUID gives that without any
// coordination.
func NewRectID() string {
	return "rect-" + uuid.NewString()
}
