// Package pkg provides the core libraries for Occlude image occlusion
// flashcards.
//
// # Overview
//
// Occlude turns an annotated image into reviewable flashcards: rectangles
// drawn over regions of an image are grouped by key, each group becomes one
// child card, and at review time the hidden regions are masked. The pkg
// directory is organized into three main areas:
//
//  1. Editing - [geom], [mask], [editor]: geometry math, group utilities,
//     and the interactive session state machine
//  2. Derivation - [card], [store]: the persisted model, the child
//     synchronizer, and the persistence backends
//  3. Review - [review], [paint], [imageref]: target resolution, mask
//     layout, and rasterization
//
// # Architecture
//
// The typical data flow through Occlude:
//
//	Image + pointer gestures
//	         ↓
//	    [editor] package (live rectangles, pan/zoom, snapshot reset)
//	         ↓ Save
//	    [card] package (clamp, group, derive/retire child records)
//	         ↓
//	    [store] package (file, Redis, or MongoDB persistence)
//	         ↓ review
//	    [review] + [paint] packages (mask layout, rasterized output)
//
// # Quick Start
//
// Open an editing session, draw one rectangle, and save:
//
//	import (
//	    "context"
//	    "github.com/occlusionlab/occlude/pkg/card"
//	    "github.com/occlusionlab/occlude/pkg/editor"
//	    "github.com/occlusionlab/occlude/pkg/store"
//	)
//
//	ctx := context.Background()
//	st := store.NewMemory()
//	parent := card.Card{ID: "anatomy-12", Front: "Label the valves"}
//
//	sess, err := editor.Open(ctx, parent, card.ParentDefinition{ImageRef: "heart.png"}, 800, 600)
//	if err != nil {
//	    return err
//	}
//	sess.PointerDown(100, 50, "")
//	sess.PointerMove(300, 150)
//	sess.PointerUp(ctx)
//
//	res, err := sess.Save(ctx, st, card.NewSyncer(st, nil))
//
// Every active child in res.Active is now a reviewable card with its own
// scheduling record.
//
// # Error Handling
//
// The [errors] package provides structured errors with machine-readable
// codes; the save path distinguishes SAVE_IN_FLIGHT, IMAGE_NOT_FOUND, and
// PERSIST_FAILED so hosts can react without string matching.
//
// # Observability
//
// The [observability] package exposes pluggable hooks for session, sync,
// and persistence events, defaulting to no-ops.
package pkg
