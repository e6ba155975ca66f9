package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/errors"
	"github.com/occlusionlab/occlude/pkg/observability"
)

// deckFile is the on-disk JSON document holding the three persisted maps.
type deckFile struct {
	Definitions map[string]card.ParentDefinition `json:"definitions"`
	Parents     map[string]card.Card             `json:"parents"`
	Children    map[string]card.ChildRecord      `json:"children"`
	Scheduling  map[string]card.SchedulingRecord `json:"scheduling"`
}

// File is a file-backed store for CLI usage: the whole deck is one JSON
// document, loaded into memory on open and flushed by Persist. A corrupt
// or missing file is treated as an empty deck rather than an error, so
// externally edited data cannot brick the tool.
type File struct {
	*Memory
	path string
}

// NewFile opens (or creates) a file-backed store at path. The parent
// directory is created if needed.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "creating store directory")
	}

	f := &File{Memory: NewMemory(), path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "reading %s", path)
	}

	var deck deckFile
	if err := json.Unmarshal(data, &deck); err != nil {
		// Invalid document - start empty rather than refuse to open.
		return f, nil
	}

	// Rectangles from externally modified files may carry out-of-range
	// coordinates; repair them on load.
	for id, def := range deck.Definitions {
		f.defs[id] = def.Clamped()
	}
	for id, p := range deck.Parents {
		f.parents[id] = p
	}
	for id, c := range deck.Children {
		f.children[id] = c
	}
	for id, s := range deck.Scheduling {
		f.sched[id] = s
	}

	return f, nil
}

// Persist writes the working state to disk atomically (temp file + rename).
func (f *File) Persist(ctx context.Context) error {
	start := time.Now()
	err := f.persist()
	observability.Store().OnPersist(ctx, "file", time.Since(start), err)
	return err
}

func (f *File) persist() error {
	f.mu.RLock()
	deck := deckFile{
		Definitions: f.defs,
		Parents:     f.parents,
		Children:    f.children,
		Scheduling:  f.sched,
	}
	data, err := json.MarshalIndent(deck, "", "  ")
	f.mu.RUnlock()
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistFailed, err, "encoding deck")
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodePersistFailed, err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrap(errors.ErrCodePersistFailed, err, "replacing %s", f.path)
	}
	return nil
}

var _ Store = (*File)(nil)
